package search

import (
	"context"
	"errors"
)

const DefaultLimit = 10

var ErrEmptyQuery = errors.New("search query is required")

type Service struct {
	embedder Embedder
	store    VectorStore
}

func NewService(e Embedder, s VectorStore) *Service {
	return &Service{embedder: e, store: s}
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.store.Search(ctx, query, vec, limit)
}
