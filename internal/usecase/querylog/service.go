// Package querylog records executed queries for offline relevance
// analysis. Recording is best effort and must never fail a search.
package querylog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assochq/membersearch/internal/domain"
)

// asyncWriteTimeout bounds detached log writes.
const asyncWriteTimeout = 5 * time.Second

// Record captures everything known about one executed query.
type Record struct {
	IssuedBy       string
	QueryText      string
	Kind           domain.QueryKind
	AppliedFilters string
	ResultCount    int
	TopResultID    string
	TopResultScore float64
	Latency        time.Duration
}

// Service handles the query log.
type Service struct {
	repo Repository
}

// New creates a query log service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record persists one query and returns the generated entry id.
func (s *Service) Record(ctx context.Context, rec Record) (string, error) {
	id := uuid.NewString()
	if err := s.create(ctx, id, rec); err != nil {
		return "", err
	}
	return id, nil
}

// RecordAsync persists the record off the caller's critical path and
// returns the entry id immediately. Write failures are logged, never
// propagated, so a broken log store cannot fail a search.
func (s *Service) RecordAsync(logger *zap.Logger, rec Record) string {
	id := uuid.NewString()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
		defer cancel()
		if err := s.create(ctx, id, rec); err != nil {
			logger.Warn("query log write failed", zap.String("entry_id", id), zap.Error(err))
		}
	}()
	return id
}

func (s *Service) create(ctx context.Context, id string, rec Record) error {
	if !rec.Kind.IsValid() {
		return fmt.Errorf("%w: unknown query kind %q", domain.ErrInvalidRequest, rec.Kind)
	}

	entry := domain.QueryLogEntry{
		ID:             id,
		IssuedBy:       rec.IssuedBy,
		QueryText:      rec.QueryText,
		Kind:           rec.Kind,
		AppliedFilters: rec.AppliedFilters,
		ResultCount:    rec.ResultCount,
		TopResultID:    rec.TopResultID,
		TopResultScore: rec.TopResultScore,
		LatencyMs:      rec.Latency.Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

// RecordClick appends a clicked content id to an entry. A click against
// an expired or unknown entry is dropped silently: the signal is gone
// but the user action must not error.
func (s *Service) RecordClick(ctx context.Context, entryID, contentID string) error {
	if entryID == "" || contentID == "" {
		return fmt.Errorf("%w: entry id and content id are required", domain.ErrInvalidRequest)
	}

	err := s.repo.AppendClick(ctx, entryID, contentID)
	if errors.Is(err, domain.ErrLogEntryNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("record click: %w", err)
	}
	return nil
}

// Get returns one log entry by id.
func (s *Service) Get(ctx context.Context, entryID string) (domain.QueryLogEntry, error) {
	entry, err := s.repo.Get(ctx, entryID)
	if err != nil {
		return domain.QueryLogEntry{}, fmt.Errorf("get query log entry: %w", err)
	}
	return entry, nil
}
