package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupChecker validates group ids against the group feature's store.
type GroupChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ChunkStore removes a deleted document's chunks from the search index.
type ChunkStore interface {
	DeleteChunksByDocument(ctx context.Context, documentID string) error
}

type Service struct {
	repo   Repository
	groups GroupChecker
	chunks ChunkStore
}

func NewService(repo Repository, groups GroupChecker, chunks ChunkStore) *Service {
	return &Service{repo: repo, groups: groups, chunks: chunks}
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Document, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) UpdateMeta(ctx context.Context, id, title string, metadata map[string]interface{}) (*Document, error) {
	return s.repo.UpdateMeta(ctx, id, title, metadata)
}

// SetGroups validates every group id before replacing the memberships.
func (s *Service) SetGroups(ctx context.Context, id string, groupIDs []string) (*Document, error) {
	for _, gid := range groupIDs {
		ok, err := s.groups.Exists(ctx, gid)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, gid)
		}
	}
	if err := s.repo.SetGroups(ctx, id, groupIDs); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes the document row and, best effort, its indexed chunks.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.chunks != nil {
		if err := s.chunks.DeleteChunksByDocument(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to delete indexed chunks", "document_id", id, "error", err)
		}
	}
	return nil
}
