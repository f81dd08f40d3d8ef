package group

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	groups map[string]*Group
}

func newMemRepo() *memRepo {
	return &memRepo{groups: make(map[string]*Group)}
}

func (r *memRepo) Create(ctx context.Context, g *Group) error {
	r.groups[g.ID] = g
	return nil
}

func (r *memRepo) Get(ctx context.Context, id string) (*Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *g
	return &copied, nil
}

func (r *memRepo) List(ctx context.Context) ([]Group, error) { return nil, nil }

func (r *memRepo) Update(ctx context.Context, g *Group) error {
	if _, ok := r.groups[g.ID]; !ok {
		return sql.ErrNoRows
	}
	r.groups[g.ID] = g
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.groups, id)
	return nil
}

func (r *memRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.groups[id]
	return ok, nil
}

func (r *memRepo) AddDocuments(ctx context.Context, id string, documentIDs []string) error {
	return nil
}

type allDocsExist struct{}

func (allDocsExist) Exists(ctx context.Context, id string) (bool, error) { return true, nil }

func seedChain(repo *memRepo) {
	// root <- mid <- leaf
	repo.groups["root"] = &Group{ID: "root", Name: "root"}
	repo.groups["mid"] = &Group{ID: "mid", Name: "mid", ParentID: "root"}
	repo.groups["leaf"] = &Group{ID: "leaf", Name: "leaf", ParentID: "mid"}
}

func TestService_Create(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, allDocsExist{})

	g, err := svc.Create(context.Background(), CreateInput{Name: "research"})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "research", g.Name)
}

func TestService_Create_RequiresName(t *testing.T) {
	svc := NewService(newMemRepo(), allDocsExist{})
	_, err := svc.Create(context.Background(), CreateInput{})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestService_Create_MissingParent(t *testing.T) {
	svc := NewService(newMemRepo(), allDocsExist{})
	_, err := svc.Create(context.Background(), CreateInput{Name: "x", ParentID: "ghost"})
	assert.ErrorIs(t, err, ErrParentMissing)
}

func TestService_Update_RejectsSelfParent(t *testing.T) {
	repo := newMemRepo()
	seedChain(repo)
	svc := NewService(repo, allDocsExist{})

	self := "mid"
	_, err := svc.Update(context.Background(), "mid", UpdateInput{ParentID: &self})
	assert.ErrorIs(t, err, ErrParentCycle)
}

func TestService_Update_RejectsAncestorCycle(t *testing.T) {
	repo := newMemRepo()
	seedChain(repo)
	svc := NewService(repo, allDocsExist{})

	// Reparenting root under leaf would make root its own ancestor.
	parent := "leaf"
	_, err := svc.Update(context.Background(), "root", UpdateInput{ParentID: &parent})
	assert.ErrorIs(t, err, ErrParentCycle)
}

func TestService_Update_AllowsValidReparent(t *testing.T) {
	repo := newMemRepo()
	seedChain(repo)
	repo.groups["other"] = &Group{ID: "other", Name: "other"}
	svc := NewService(repo, allDocsExist{})

	parent := "other"
	g, err := svc.Update(context.Background(), "leaf", UpdateInput{ParentID: &parent})
	require.NoError(t, err)
	assert.Equal(t, "other", g.ParentID)
}

func TestService_Update_AllowsDetach(t *testing.T) {
	repo := newMemRepo()
	seedChain(repo)
	svc := NewService(repo, allDocsExist{})

	empty := ""
	g, err := svc.Update(context.Background(), "leaf", UpdateInput{ParentID: &empty})
	require.NoError(t, err)
	assert.Empty(t, g.ParentID)
}
