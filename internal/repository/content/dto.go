package content

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/assochq/membersearch/internal/domain"
)

// Hash field names. Metadata lives under a single JSON field so every
// upsert writes the same complete field set: concurrent writers to one
// key resolve per-field last-writer-wins without leaving a merged row.
const (
	fieldVector      = "__vector"
	fieldTitle       = "__title"
	fieldDescription = "__description"
	fieldBody        = "__body"
	fieldTags        = "__tags"
	fieldMetadata    = "__metadata"
	fieldUpdated     = "__updated"
)

// buildHashFields converts a content row into a flat map for HSET.
func buildHashFields(c *domain.IndexedContent) (map[string]string, error) {
	lex := c.Lexical()

	tags, err := json.Marshal(lex.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	meta, err := json.Marshal(c.Metadata())
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	return map[string]string{
		fieldVector:      vectorToBytes(c.Vector()),
		fieldTitle:       lex.Title,
		fieldDescription: lex.Description,
		fieldBody:        lex.Body,
		fieldTags:        string(tags),
		fieldMetadata:    string(meta),
		fieldUpdated:     c.UpdatedAt().Format(time.RFC3339Nano),
	}, nil
}

// parseHashFields converts a flat hash map back into a content row.
func parseHashFields(key domain.ContentKey, m map[string]string) (domain.IndexedContent, error) {
	var tags []string
	if raw := m[fieldTags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return domain.IndexedContent{}, fmt.Errorf("unmarshal tags for %s: %w", key, err)
		}
	}

	var metadata map[string]string
	if raw := m[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return domain.IndexedContent{}, fmt.Errorf("unmarshal metadata for %s: %w", key, err)
		}
	}

	var updated time.Time
	if raw := m[fieldUpdated]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.IndexedContent{}, fmt.Errorf("parse updated for %s: %w", key, err)
		}
		updated = t
	}

	lex := domain.LexicalFields{
		Title:       m[fieldTitle],
		Description: m[fieldDescription],
		Body:        m[fieldBody],
		Tags:        tags,
	}

	return domain.Reconstruct(key, bytesToVector(m[fieldVector]), lex, metadata, updated), nil
}

// vectorToBytes packs a float32 slice into little-endian bytes.
func vectorToBytes(vec []float32) string {
	if len(vec) == 0 {
		return ""
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}

// bytesToVector unpacks little-endian bytes into a float32 slice.
func bytesToVector(s string) []float32 {
	if len(s) == 0 || len(s)%4 != 0 {
		return nil
	}
	b := []byte(s)
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec
}
