package health

import (
	"context"

	"github.com/assochq/membersearch/internal/index"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexStats reports in-memory index counters.
type IndexStats interface {
	Stats() index.Stats
}
