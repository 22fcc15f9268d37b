package ingest

import (
	"context"

	"github.com/assochq/membersearch/internal/domain"
)

// Repository is the durable side of the content index store.
type Repository interface {
	Upsert(ctx context.Context, c *domain.IndexedContent) error
	Delete(ctx context.Context, key domain.ContentKey) error
}

// Indexer is the live in-process index side.
type Indexer interface {
	Upsert(row *domain.IndexedContent) error
	Remove(key domain.ContentKey) error
}
