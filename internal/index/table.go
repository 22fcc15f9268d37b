package index

import (
	"sync"

	"github.com/assochq/membersearch/internal/domain"
)

// table is the in-memory content row store behind the query engines.
// Queries are pure reads against it; ingestion takes the write lock
// per row, so concurrent upserts to distinct keys never contend on
// more than the map itself and same-key races resolve to one winner.
type table struct {
	mu   sync.RWMutex
	rows map[domain.ContentKey]domain.IndexedContent
}

func newTable() *table {
	return &table{rows: make(map[domain.ContentKey]domain.IndexedContent)}
}

// set replaces the row for a key.
func (t *table) set(row domain.IndexedContent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[row.Key()] = row
}

// remove deletes the row for a key, reporting whether it existed.
func (t *table) remove(key domain.ContentKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.rows[key]
	delete(t.rows, key)
	return ok
}

// get returns the row for a key.
func (t *table) get(key domain.ContentKey) (domain.IndexedContent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[key]
	return row, ok
}

// snapshot returns a copy of all rows.
func (t *table) snapshot() []domain.IndexedContent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]domain.IndexedContent, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, row)
	}
	return rows
}

// size returns the number of rows.
func (t *table) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
