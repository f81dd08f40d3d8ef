package group

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNameTaken     = errors.New("group name already in use")
	ErrNameRequired  = errors.New("group name is required")
	ErrParentCycle   = errors.New("parent assignment would create a cycle")
	ErrParentMissing = errors.New("parent group not found")
)

// DocumentChecker reports whether a document id exists.
type DocumentChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo Repository
	docs DocumentChecker
}

func NewService(repo Repository, docs DocumentChecker) *Service {
	return &Service{repo: repo, docs: docs}
}

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    string `json:"parentId"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Group, error) {
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if in.ParentID != "" {
		ok, err := s.repo.Exists(ctx, in.ParentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrParentMissing
		}
	}
	g := &Group{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		ParentID:    in.ParentID,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return g, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Group, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Group, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *string `json:"parentId"`
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Group, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, ErrNameRequired
		}
		g.Name = *in.Name
	}
	if in.Description != nil {
		g.Description = *in.Description
	}
	if in.ParentID != nil {
		if err := s.checkParent(ctx, id, *in.ParentID); err != nil {
			return nil, err
		}
		g.ParentID = *in.ParentID
	}
	if err := s.repo.Update(ctx, g); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// checkParent walks the candidate parent's ancestor chain and rejects the
// assignment if it loops back to the group being updated.
func (s *Service) checkParent(ctx context.Context, id, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == id {
		return ErrParentCycle
	}
	ok, err := s.repo.Exists(ctx, parentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrParentMissing
	}
	cur := parentID
	for cur != "" {
		anc, err := s.repo.Get(ctx, cur)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		if anc.ParentID == id {
			return ErrParentCycle
		}
		cur = anc.ParentID
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddDocuments(ctx context.Context, id string, documentIDs []string) (*Group, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	for _, did := range documentIDs {
		ok, err := s.docs.Exists(ctx, did)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, sql.ErrNoRows
		}
	}
	if err := s.repo.AddDocuments(ctx, id, documentIDs); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Exists lets other features validate group references without depending on
// the repository type.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}
