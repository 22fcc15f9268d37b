// Package content persists indexed content rows as hashes in the
// backing store. One hash per (contentType, contentId) key; upserts
// replace the full field set in place.
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/assochq/membersearch/internal/domain"
)

// store is the consumer interface for content rows (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the durable side of the content index store.
type Repo struct {
	store store
}

// New creates a content repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert writes a row, replacing any prior state for the key. A row
// whose content is unchanged is not rewritten, so a repeated identical
// upsert leaves the stored bytes untouched, timestamp included.
func (r *Repo) Upsert(ctx context.Context, c *domain.IndexedContent) error {
	fields, err := buildHashFields(c)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.Key(), err)
	}
	prior, err := r.store.HGetAll(ctx, rowKey(c.Key()))
	if err != nil {
		return fmt.Errorf("hgetall %s: %w", c.Key(), err)
	}
	if sameContent(prior, fields) {
		return nil
	}
	if err := r.store.HSet(ctx, rowKey(c.Key()), fields); err != nil {
		return fmt.Errorf("hset %s: %w", c.Key(), err)
	}
	return nil
}

// sameContent compares two encoded rows ignoring the updated timestamp.
func sameContent(prior, next map[string]string) bool {
	if len(prior) == 0 {
		return false
	}
	for k, v := range next {
		if k == fieldUpdated {
			continue
		}
		if prior[k] != v {
			return false
		}
	}
	return true
}

// Get returns a row by key.
func (r *Repo) Get(ctx context.Context, key domain.ContentKey) (domain.IndexedContent, error) {
	m, err := r.store.HGetAll(ctx, rowKey(key))
	if err != nil {
		return domain.IndexedContent{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domain.IndexedContent{}, domain.ErrContentNotFound
	}
	return parseHashFields(key, m)
}

// Delete removes a row. Deleting a missing row reports ErrContentNotFound.
func (r *Repo) Delete(ctx context.Context, key domain.ContentKey) error {
	exists, err := r.store.Exists(ctx, rowKey(key))
	if err != nil {
		return fmt.Errorf("exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrContentNotFound
	}
	if err := r.store.Del(ctx, rowKey(key)); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// LoadAll streams every stored row, used to rebuild the in-process
// indexes at startup. Rows that fail to decode are skipped and
// reported through the returned count of skipped keys.
func (r *Repo) LoadAll(ctx context.Context) ([]domain.IndexedContent, int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix()+"*")
	if err != nil {
		return nil, 0, fmt.Errorf("scan content keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, 0, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, 0, fmt.Errorf("load content rows: %w", err)
	}

	rows := make([]domain.IndexedContent, 0, len(keys))
	skipped := 0
	for i, m := range maps {
		key, err := domain.ParseContentKey(strings.TrimPrefix(keys[i], keyPrefix()))
		if err != nil {
			skipped++
			continue
		}
		row, err := parseHashFields(key, m)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func keyPrefix() string {
	return domain.KeyPrefix + "content:"
}

func rowKey(key domain.ContentKey) string {
	return keyPrefix() + key.String()
}
