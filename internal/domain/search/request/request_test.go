package request

import (
	"strings"
	"testing"

	"github.com/assochq/membersearch/internal/domain"
	"github.com/assochq/membersearch/internal/domain/search/filter"
)

var testVector = []float32{0.1, 0.2, 0.3}

func TestNewSemantic_LimitClamping(t *testing.T) {
	// An explicit zero stays zero; the result list may never exceed
	// the requested limit. Absent limits default in transport.
	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{5, 5},
		{MaxLimit + 100, MaxLimit},
		{-3, 0},
	}
	for _, tc := range cases {
		r, err := NewSemantic(testVector, nil, filter.Expression{}, tc.in, 0, 0)
		if err != nil {
			t.Fatalf("limit %d: unexpected error: %v", tc.in, err)
		}
		if r.Limit() != tc.want {
			t.Errorf("limit %d: got %d, want %d", tc.in, r.Limit(), tc.want)
		}
	}
}

func TestNewSemantic_Validation(t *testing.T) {
	if _, err := NewSemantic(nil, nil, filter.Expression{}, 10, 0, 0); err == nil {
		t.Error("expected error for missing vector")
	}
	if _, err := NewSemantic(testVector, nil, filter.Expression{}, 10, -0.1, 0); err == nil {
		t.Error("expected error for negative min similarity")
	}
	if _, err := NewSemantic(testVector, nil, filter.Expression{}, 10, 1.1, 0); err == nil {
		t.Error("expected error for min similarity above 1")
	}
	if _, err := NewSemantic(testVector, []domain.ContentType{"bogus"}, filter.Expression{}, 10, 0, 0); err == nil {
		t.Error("expected error for invalid content type")
	}
}

func TestNewLexical_Validation(t *testing.T) {
	if _, err := NewLexical("", nil, 10); err == nil {
		t.Error("expected error for empty query")
	}
	long := strings.Repeat("x", MaxQueryLength+1)
	if _, err := NewLexical(long, nil, 10); err == nil {
		t.Error("expected error for oversized query")
	}
	if _, err := NewLexical("annual meeting", []domain.ContentType{domain.TypeEvent}, 10); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewLexical_ZeroLimitPreserved(t *testing.T) {
	r, err := NewLexical("renewal", nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 0 {
		t.Errorf("explicit zero limit altered: got %d", r.Limit())
	}
}

func TestNewHybrid_Weights(t *testing.T) {
	// Zero weights are a valid, if degenerate, configuration.
	r, err := NewHybrid("q", testVector, nil, filter.Expression{}, 10, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error for zero weights: %v", err)
	}
	if r.KeywordWeight() != 0 || r.SemanticWeight() != 0 {
		t.Error("zero weights should be preserved")
	}

	if _, err := NewHybrid("q", testVector, nil, filter.Expression{}, 10, -1, 0.5); err == nil {
		t.Error("expected error for negative keyword weight")
	}
	if _, err := NewHybrid("q", testVector, nil, filter.Expression{}, 10, 0.5, -1); err == nil {
		t.Error("expected error for negative semantic weight")
	}
}

func TestNewHybrid_Validation(t *testing.T) {
	if _, err := NewHybrid("", testVector, nil, filter.Expression{}, 10, 1, 1); err == nil {
		t.Error("expected error for empty query")
	}
	if _, err := NewHybrid("q", nil, nil, filter.Expression{}, 10, 1, 1); err == nil {
		t.Error("expected error for missing vector")
	}
}

func TestNewSimilar_Validation(t *testing.T) {
	key, err := domain.NewContentKey(domain.TypeCourse, "go-101")
	if err != nil {
		t.Fatalf("NewContentKey: %v", err)
	}
	r, err := NewSimilar(key, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 0 {
		t.Errorf("explicit zero limit altered: got %d", r.Limit())
	}

	if _, err := NewSimilar(domain.ContentKey{}, 10); err == nil {
		t.Error("expected error for zero key")
	}
}

func TestCandidatePool(t *testing.T) {
	cases := []struct {
		limit int
		want  int
	}{
		{1, MinCandidates},
		{10, MinCandidates},
		{20, 100},
		{100, 500},
		{MaxLimit, MaxCandidates},
	}
	for _, tc := range cases {
		if got := CandidatePool(tc.limit); got != tc.want {
			t.Errorf("CandidatePool(%d) = %d, want %d", tc.limit, got, tc.want)
		}
	}
}
