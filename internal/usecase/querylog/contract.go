package querylog

import (
	"context"

	"github.com/assochq/membersearch/internal/domain"
)

// Repository persists query log entries.
type Repository interface {
	Create(ctx context.Context, entry *domain.QueryLogEntry) error
	AppendClick(ctx context.Context, entryID string, contentID string) error
	Get(ctx context.Context, entryID string) (domain.QueryLogEntry, error)
}
