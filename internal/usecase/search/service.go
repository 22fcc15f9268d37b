// Package search executes the four query entry points: semantic,
// lexical, hybrid, and find-similar. All are pure reads against the
// shared index engine.
package search

import (
	"context"
	"fmt"

	"github.com/assochq/membersearch/internal/domain/search/filter"
	"github.com/assochq/membersearch/internal/domain/search/request"
	"github.com/assochq/membersearch/internal/domain/search/result"
)

// Service handles content search.
type Service struct {
	engine Engine
}

// New creates a search service.
func New(engine Engine) *Service {
	return &Service{engine: engine}
}

// SemanticSearch returns nearest neighbors of the query vector.
func (s *Service) SemanticSearch(_ context.Context, req *request.Semantic) ([]result.Result, error) {
	results, err := s.engine.Semantic(
		req.Vector(), req.Types(), req.Filters(), req.Limit(), req.MinSimilarity(), req.Probes(),
	)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return results, nil
}

// LexicalSearch returns keyword-ranked matches for the query text.
func (s *Service) LexicalSearch(_ context.Context, req *request.Lexical) ([]result.Result, error) {
	results, err := s.engine.Lexical(req.Query(), req.Types(), req.Limit())
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return results, nil
}

// HybridSearch runs both sides independently over generously sized
// candidate pools, then fuses them into one ranking.
func (s *Service) HybridSearch(_ context.Context, req *request.Hybrid) ([]result.Result, error) {
	pool := request.CandidatePool(req.Limit())

	keyword, err := s.engine.Lexical(req.Query(), req.Types(), pool)
	if err != nil {
		return nil, fmt.Errorf("hybrid keyword side: %w", err)
	}

	semantic, err := s.engine.Semantic(req.Vector(), req.Types(), req.Filters(), pool, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("hybrid semantic side: %w", err)
	}

	// The metadata filter applies to the keyword side too: filtered
	// items must be excluded from the fused list, not down-weighted.
	if !req.Filters().IsEmpty() {
		keyword = filterResults(keyword, req.Filters())
	}

	return fuseLinear(keyword, semantic, req.KeywordWeight(), req.SemanticWeight(), req.Limit()), nil
}

// FindSimilar returns the ranked neighborhood of a stored item's own
// vector, the item itself excluded, with no similarity floor.
func (s *Service) FindSimilar(_ context.Context, req *request.Similar) ([]result.Result, error) {
	vec, err := s.engine.Vector(req.Key())
	if err != nil {
		return nil, fmt.Errorf("find similar %s: %w", req.Key(), err)
	}

	// Fetch one extra so dropping the source item still fills the limit.
	neighbors, err := s.engine.Semantic(vec, nil, filter.Expression{}, req.Limit()+1, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("find similar %s: %w", req.Key(), err)
	}

	results := make([]result.Result, 0, len(neighbors))
	for _, r := range neighbors {
		if r.Key() == req.Key() {
			continue
		}
		results = append(results, r)
	}
	if len(results) > req.Limit() {
		results = results[:req.Limit()]
	}
	return results, nil
}

func filterResults(results []result.Result, filters filter.Expression) []result.Result {
	out := results[:0]
	for _, r := range results {
		if filters.Matches(r.Metadata()) {
			out = append(out, r)
		}
	}
	return out
}
