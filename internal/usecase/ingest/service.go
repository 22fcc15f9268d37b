// Package ingest handles content index writes: the external ingestion
// pipeline calls Upsert whenever a source entity is created or edited
// (or its embedding regenerated) and Remove when it is deleted.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/assochq/membersearch/internal/domain"
)

// Service coordinates durable and live index writes.
type Service struct {
	repo Repository
	idx  Indexer
	dim  int
}

// New creates an ingestion service for a fixed vector dimension.
func New(repo Repository, idx Indexer, dim int) *Service {
	return &Service{repo: repo, idx: idx, dim: dim}
}

// Upsert creates or replaces a content row. Idempotent: a repeated
// call with the same arguments leaves the stored row identical. A
// vector of the wrong dimension is rejected before anything is
// written, preserving all prior state for the key.
func (s *Service) Upsert(
	ctx context.Context,
	key domain.ContentKey,
	vector []float32,
	lexical domain.LexicalFields,
	metadata map[string]string,
) error {
	if len(vector) > 0 && len(vector) != s.dim {
		return domain.NewDimensionMismatch(len(vector), s.dim)
	}

	row := domain.NewIndexedContent(key, vector, lexical, metadata)

	if err := s.repo.Upsert(ctx, &row); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	if err := s.idx.Upsert(&row); err != nil {
		return fmt.Errorf("index %s: %w", key, err)
	}
	return nil
}

// Remove deletes a content row from durable storage and every live
// index, so it disappears from all query entry points on the next
// call. Reports ErrContentNotFound when the key was never indexed.
func (s *Service) Remove(ctx context.Context, key domain.ContentKey) error {
	repoErr := s.repo.Delete(ctx, key)
	if repoErr != nil && !errors.Is(repoErr, domain.ErrContentNotFound) {
		return fmt.Errorf("delete %s: %w", key, repoErr)
	}

	idxErr := s.idx.Remove(key)
	if idxErr != nil && !errors.Is(idxErr, domain.ErrContentNotFound) {
		return fmt.Errorf("deindex %s: %w", key, idxErr)
	}

	// Not found on both sides means the key was never there.
	if repoErr != nil && idxErr != nil {
		return domain.ErrContentNotFound
	}
	return nil
}
