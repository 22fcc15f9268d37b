package chi

import (
	"fmt"

	"github.com/assochq/membersearch/internal/domain"
	"github.com/assochq/membersearch/internal/domain/search/filter"
	"github.com/assochq/membersearch/internal/domain/search/request"
	"github.com/assochq/membersearch/internal/domain/search/result"
)

// Error codes returned in the error response body.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeNoEmbedding      = "no_embedding"
	codeDimMismatch      = "dimension_mismatch"
	codeProviderError    = "embedding_provider_error"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// upsertRequest is the PUT /content/{type}/{id} body.
type upsertRequest struct {
	Vector      []float32         `json:"vector,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Body        string            `json:"body,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// searchRequest is the POST /search body. mode selects the entry
// point; vector may be omitted for semantic/hybrid when an embedding
// provider is configured, in which case query text is embedded.
type searchRequest struct {
	Mode           string            `json:"mode"`
	Query          string            `json:"query,omitempty"`
	Vector         []float32         `json:"vector,omitempty"`
	Types          []string          `json:"types,omitempty"`
	Filters        []filterCondition `json:"filters,omitempty"`
	Limit          *int              `json:"limit,omitempty"`
	MinScore       float64           `json:"min_score,omitempty"`
	Probes         int               `json:"probes,omitempty"`
	KeywordWeight  *float64          `json:"keyword_weight,omitempty"`
	SemanticWeight *float64          `json:"semantic_weight,omitempty"`
	IssuedBy       string            `json:"issued_by,omitempty"`
}

// filterCondition is one metadata predicate. Exactly one of equals,
// any_of, range must be set.
type filterCondition struct {
	Key    string       `json:"key"`
	Equals string       `json:"equals,omitempty"`
	AnyOf  []string     `json:"any_of,omitempty"`
	Range  *rangeBounds `json:"range,omitempty"`
}

type rangeBounds struct {
	GT  *float64 `json:"gt,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

type resultItem struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	KeywordRank float64           `json:"keyword_rank,omitempty"`
	Similarity  float64           `json:"similarity,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type searchResponse struct {
	Items      []resultItem `json:"items"`
	Total      int          `json:"total"`
	QueryLogID string       `json:"query_log_id,omitempty"`
}

// similarRequest is the POST /content/{type}/{id}/similar body.
type similarRequest struct {
	Limit *int `json:"limit,omitempty"`
}

// limitOrDefault distinguishes an absent limit from an explicit zero.
// An explicit zero yields an empty result list.
func limitOrDefault(limit *int) int {
	if limit == nil {
		return request.DefaultLimit
	}
	return *limit
}

// clickRequest is the POST /querylog/{id}/clicks body.
type clickRequest struct {
	ContentID string `json:"content_id"`
}

type rebuildResponse struct {
	Vectors int `json:"vectors"`
}

type healthResponse struct {
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks"`
	Rows           int               `json:"rows"`
	LexicalDocs    uint64            `json:"lexical_docs"`
	VectorsIndexed int               `json:"vectors_indexed"`
	VectorsPending int               `json:"vectors_pending"`
	Version        string            `json:"version"`
}

func typesFromStrings(types []string) []domain.ContentType {
	if len(types) == 0 {
		return nil
	}
	out := make([]domain.ContentType, len(types))
	for i, t := range types {
		out[i] = domain.ContentType(t)
	}
	return out
}

func filtersFromDTO(conditions []filterCondition) (filter.Expression, error) {
	if len(conditions) == 0 {
		return filter.Expression{}, nil
	}
	parsed := make([]filter.Condition, 0, len(conditions))
	for _, c := range conditions {
		cond, err := conditionFromDTO(c)
		if err != nil {
			return filter.Expression{}, err
		}
		parsed = append(parsed, cond)
	}
	return filter.NewExpression(parsed)
}

func conditionFromDTO(c filterCondition) (filter.Condition, error) {
	set := 0
	if c.Equals != "" {
		set++
	}
	if len(c.AnyOf) > 0 {
		set++
	}
	if c.Range != nil {
		set++
	}
	if set != 1 {
		return filter.Condition{}, fmt.Errorf("filter on %q must set exactly one of equals, any_of, range", c.Key)
	}

	switch {
	case c.Equals != "":
		return filter.NewEquals(c.Key, c.Equals)
	case len(c.AnyOf) > 0:
		return filter.NewAnyOf(c.Key, c.AnyOf)
	default:
		r, err := filter.NewRangeBounds(c.Range.GT, c.Range.GTE, c.Range.LT, c.Range.LTE)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("filter on %q: %w", c.Key, err)
		}
		return filter.NewRange(c.Key, r)
	}
}

func resultToDTO(r *result.Result) resultItem {
	return resultItem{
		Type:        string(r.Key().Type),
		ID:          r.Key().ID,
		Score:       r.Score(),
		KeywordRank: r.KeywordRank(),
		Similarity:  r.Similarity(),
		Title:       r.Title(),
		Description: r.Description(),
		Metadata:    r.Metadata(),
	}
}
