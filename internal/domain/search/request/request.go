// Package request holds validated query parameters for every search
// entry point. Constructors normalize defaults and reject malformed
// input before any query executes.
package request

import (
	"fmt"

	"github.com/assochq/membersearch/internal/domain"
	"github.com/assochq/membersearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 500

	// CandidateMultiplier oversizes the per-side candidate pools for
	// hybrid fusion so re-ranking has enough material beyond the
	// final limit.
	CandidateMultiplier = 5
	MinCandidates       = 50
	MaxCandidates       = 1000
)

// clampLimit applies the maximum bound. Zero and negative limits are
// valid and yield empty result lists; an absent limit defaults at the
// transport layer, where absent and explicit zero are distinguishable.
func clampLimit(limit int) int {
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if limit < 0 {
		limit = 0
	}
	return limit
}

// CandidatePool returns the per-side fetch size for a final limit.
func CandidatePool(limit int) int {
	n := limit * CandidateMultiplier
	if n < MinCandidates {
		n = MinCandidates
	}
	if n > MaxCandidates {
		n = MaxCandidates
	}
	return n
}

func validateTypes(types []domain.ContentType) error {
	for _, t := range types {
		if !t.IsValid() {
			return fmt.Errorf("invalid content type filter %q", t)
		}
	}
	return nil
}

// Semantic is a validated nearest-neighbor query.
type Semantic struct {
	vector        []float32
	types         []domain.ContentType
	filters       filter.Expression
	limit         int
	minSimilarity float64
	probes        int
}

// NewSemantic validates and normalizes semantic search parameters.
// probes overrides the engine's candidate-list size when positive.
func NewSemantic(
	vector []float32,
	types []domain.ContentType,
	filters filter.Expression,
	limit int,
	minSimilarity float64,
	probes int,
) (Semantic, error) {
	if len(vector) == 0 {
		return Semantic{}, fmt.Errorf("query vector is required")
	}
	if err := validateTypes(types); err != nil {
		return Semantic{}, err
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return Semantic{}, fmt.Errorf("min_similarity must be between 0 and 1")
	}
	if probes < 0 {
		probes = 0
	}
	return Semantic{
		vector:        vector,
		types:         types,
		filters:       filters,
		limit:         clampLimit(limit),
		minSimilarity: minSimilarity,
		probes:        probes,
	}, nil
}

// Vector returns the query embedding.
func (r *Semantic) Vector() []float32 { return r.vector }

// Types returns the content-type filter, empty for all types.
func (r *Semantic) Types() []domain.ContentType { return r.types }

// Filters returns the metadata filter expression.
func (r *Semantic) Filters() filter.Expression { return r.filters }

// Limit returns the maximum results to return.
func (r *Semantic) Limit() int { return r.limit }

// MinSimilarity returns the similarity floor.
func (r *Semantic) MinSimilarity() float64 { return r.minSimilarity }

// Probes returns the candidate-list override, 0 for the engine default.
func (r *Semantic) Probes() int { return r.probes }

// Lexical is a validated keyword query. The query is a bag of terms,
// not boolean or phrase syntax.
type Lexical struct {
	query string
	types []domain.ContentType
	limit int
}

// NewLexical validates and normalizes lexical search parameters.
func NewLexical(query string, types []domain.ContentType, limit int) (Lexical, error) {
	if query == "" {
		return Lexical{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Lexical{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if err := validateTypes(types); err != nil {
		return Lexical{}, err
	}
	return Lexical{query: query, types: types, limit: clampLimit(limit)}, nil
}

// Query returns the search text.
func (r *Lexical) Query() string { return r.query }

// Types returns the content-type filter, empty for all types.
func (r *Lexical) Types() []domain.ContentType { return r.types }

// Limit returns the maximum results to return.
func (r *Lexical) Limit() int { return r.limit }

// Hybrid is a validated fused query: lexical and semantic sides run
// independently and are merged by weighted linear combination.
type Hybrid struct {
	query          string
	vector         []float32
	types          []domain.ContentType
	filters        filter.Expression
	limit          int
	keywordWeight  float64
	semanticWeight float64
}

// NewHybrid validates and normalizes hybrid search parameters.
// Zero weights are accepted (ordering then falls back to the
// tie-break rule); negative weights are rejected.
func NewHybrid(
	query string,
	vector []float32,
	types []domain.ContentType,
	filters filter.Expression,
	limit int,
	keywordWeight, semanticWeight float64,
) (Hybrid, error) {
	if query == "" {
		return Hybrid{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Hybrid{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if len(vector) == 0 {
		return Hybrid{}, fmt.Errorf("query vector is required")
	}
	if err := validateTypes(types); err != nil {
		return Hybrid{}, err
	}
	if keywordWeight < 0 || semanticWeight < 0 {
		return Hybrid{}, fmt.Errorf("weights must be non-negative")
	}
	return Hybrid{
		query:          query,
		vector:         vector,
		types:          types,
		filters:        filters,
		limit:          clampLimit(limit),
		keywordWeight:  keywordWeight,
		semanticWeight: semanticWeight,
	}, nil
}

// Query returns the search text.
func (r *Hybrid) Query() string { return r.query }

// Vector returns the query embedding.
func (r *Hybrid) Vector() []float32 { return r.vector }

// Types returns the content-type filter, empty for all types.
func (r *Hybrid) Types() []domain.ContentType { return r.types }

// Filters returns the metadata filter expression.
func (r *Hybrid) Filters() filter.Expression { return r.filters }

// Limit returns the maximum results to return.
func (r *Hybrid) Limit() int { return r.limit }

// KeywordWeight returns the lexical-side weight.
func (r *Hybrid) KeywordWeight() float64 { return r.keywordWeight }

// SemanticWeight returns the semantic-side weight.
func (r *Hybrid) SemanticWeight() float64 { return r.semanticWeight }

// Similar is a validated "find similar" query: neighbors of a stored
// item's own vector, the item itself excluded, no similarity floor.
type Similar struct {
	key   domain.ContentKey
	limit int
}

// NewSimilar validates and normalizes similar request parameters.
func NewSimilar(key domain.ContentKey, limit int) (Similar, error) {
	if key.ID == "" || !key.Type.IsValid() {
		return Similar{}, fmt.Errorf("valid content key is required")
	}
	return Similar{key: key, limit: clampLimit(limit)}, nil
}

// Key returns the source item identity.
func (r *Similar) Key() domain.ContentKey { return r.key }

// Limit returns the maximum results to return.
func (r *Similar) Limit() int { return r.limit }
