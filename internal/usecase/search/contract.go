package search

import (
	"github.com/assochq/membersearch/internal/domain"
	"github.com/assochq/membersearch/internal/domain/search/filter"
	"github.com/assochq/membersearch/internal/domain/search/result"
)

// Engine is the in-process index contract for query execution.
type Engine interface {
	Semantic(
		vector []float32,
		types []domain.ContentType,
		filters filter.Expression,
		k int,
		minSimilarity float64,
		probes int,
	) ([]result.Result, error)

	Lexical(queryText string, types []domain.ContentType, k int) ([]result.Result, error)

	Vector(key domain.ContentKey) ([]float32, error)
}
