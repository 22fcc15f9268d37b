// Package querylog persists query log entries. Entries are immutable
// once written except for the clicked-ids append.
package querylog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/assochq/membersearch/internal/db"
	"github.com/assochq/membersearch/internal/domain"
)

// Hash field names for a log entry.
const (
	fieldIssuedBy    = "issued_by"
	fieldQuery       = "query"
	fieldKind        = "kind"
	fieldFilters     = "filters"
	fieldResultCount = "result_count"
	fieldTopID       = "top_result_id"
	fieldTopScore    = "top_result_score"
	fieldLatencyMs   = "latency_ms"
	fieldClicked     = "clicked_ids"
	fieldCreatedAt   = "created_at"
)

// store is the consumer interface for log entries (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements the durable query log.
type Repo struct {
	store store
}

// New creates a query log repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create persists a new log entry.
func (r *Repo) Create(ctx context.Context, e *domain.QueryLogEntry) error {
	clicked, err := json.Marshal(e.ClickedIDs)
	if err != nil {
		return fmt.Errorf("marshal clicked ids: %w", err)
	}
	fields := map[string]string{
		fieldIssuedBy:    e.IssuedBy,
		fieldQuery:       e.QueryText,
		fieldKind:        string(e.Kind),
		fieldFilters:     e.AppliedFilters,
		fieldResultCount: strconv.Itoa(e.ResultCount),
		fieldTopID:       e.TopResultID,
		fieldTopScore:    strconv.FormatFloat(e.TopResultScore, 'f', -1, 64),
		fieldLatencyMs:   strconv.FormatInt(e.LatencyMs, 10),
		fieldClicked:     string(clicked),
		fieldCreatedAt:   e.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := r.store.HSet(ctx, entryKey(e.ID), fields); err != nil {
		return fmt.Errorf("hset log entry %s: %w", e.ID, err)
	}
	return nil
}

// AppendClick adds a clicked content id to an entry's click list.
// Reports ErrLogEntryNotFound when the entry is missing or expired;
// the caller decides whether that is an error.
func (r *Repo) AppendClick(ctx context.Context, id, contentID string) error {
	exists, err := r.store.Exists(ctx, entryKey(id))
	if err != nil {
		return fmt.Errorf("exists log entry %s: %w", id, err)
	}
	if !exists {
		return domain.ErrLogEntryNotFound
	}

	raw, err := r.store.HGet(ctx, entryKey(id), fieldClicked)
	if err != nil && !errors.Is(err, db.ErrFieldNotFound) {
		return fmt.Errorf("hget clicked ids %s: %w", id, err)
	}

	var clicked []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &clicked); err != nil {
			return fmt.Errorf("unmarshal clicked ids %s: %w", id, err)
		}
	}
	clicked = append(clicked, contentID)

	data, err := json.Marshal(clicked)
	if err != nil {
		return fmt.Errorf("marshal clicked ids: %w", err)
	}
	if err := r.store.HSet(ctx, entryKey(id), map[string]string{fieldClicked: string(data)}); err != nil {
		return fmt.Errorf("hset clicked ids %s: %w", id, err)
	}
	return nil
}

// Get returns a log entry by id.
func (r *Repo) Get(ctx context.Context, id string) (domain.QueryLogEntry, error) {
	m, err := r.store.HGetAll(ctx, entryKey(id))
	if err != nil {
		return domain.QueryLogEntry{}, fmt.Errorf("hgetall log entry %s: %w", id, err)
	}
	if len(m) == 0 {
		return domain.QueryLogEntry{}, domain.ErrLogEntryNotFound
	}
	return parseEntry(id, m)
}

func parseEntry(id string, m map[string]string) (domain.QueryLogEntry, error) {
	resultCount, _ := strconv.Atoi(m[fieldResultCount])
	topScore, _ := strconv.ParseFloat(m[fieldTopScore], 64)
	latency, _ := strconv.ParseInt(m[fieldLatencyMs], 10, 64)

	var clicked []string
	if raw := m[fieldClicked]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &clicked); err != nil {
			return domain.QueryLogEntry{}, fmt.Errorf("unmarshal clicked ids %s: %w", id, err)
		}
	}

	var created time.Time
	if raw := m[fieldCreatedAt]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.QueryLogEntry{}, fmt.Errorf("parse created_at %s: %w", id, err)
		}
		created = t
	}

	return domain.QueryLogEntry{
		ID:             id,
		IssuedBy:       m[fieldIssuedBy],
		QueryText:      m[fieldQuery],
		Kind:           domain.QueryKind(m[fieldKind]),
		AppliedFilters: m[fieldFilters],
		ResultCount:    resultCount,
		TopResultID:    m[fieldTopID],
		TopResultScore: topScore,
		LatencyMs:      latency,
		ClickedIDs:     clicked,
		CreatedAt:      created,
	}, nil
}

func entryKey(id string) string {
	return domain.KeyPrefix + "qlog:" + id
}
