// Package result holds the ranked hit value type shared by all search
// entry points.
package result

import "github.com/assochq/membersearch/internal/domain"

// Result is a single ranked hit. Which score fields are populated
// depends on the entry point: semantic and similar queries fill
// Similarity, lexical queries fill KeywordRank, hybrid queries fill
// all three with Score as the fused combination.
type Result struct {
	key         domain.ContentKey
	score       float64
	keywordRank float64
	similarity  float64
	title       string
	description string
	metadata    map[string]string
}

// New creates a search result.
func New(
	key domain.ContentKey, score, keywordRank, similarity float64,
	title, description string, metadata map[string]string,
) Result {
	return Result{
		key:         key,
		score:       score,
		keywordRank: keywordRank,
		similarity:  similarity,
		title:       title,
		description: description,
		metadata:    metadata,
	}
}

// Key returns the item identity.
func (r *Result) Key() domain.ContentKey { return r.key }

// Score returns the primary ranking score for the entry point.
func (r *Result) Score() float64 { return r.score }

// KeywordRank returns the lexical relevance score, 0 when the item
// matched only on the semantic side.
func (r *Result) KeywordRank() float64 { return r.keywordRank }

// Similarity returns the cosine similarity in [0,1], 0 when the item
// matched only on the lexical side.
func (r *Result) Similarity() float64 { return r.similarity }

// Title returns the item title for display.
func (r *Result) Title() string { return r.title }

// Description returns the item description for display.
func (r *Result) Description() string { return r.description }

// Metadata returns the item metadata.
func (r *Result) Metadata() map[string]string { return r.metadata }
