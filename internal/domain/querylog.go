package domain

import "time"

// QueryKind is the entry point a query came through.
type QueryKind string

// Query kinds recorded in the log.
const (
	KindLexical  QueryKind = "lexical"
	KindSemantic QueryKind = "semantic"
	KindHybrid   QueryKind = "hybrid"
	KindSimilar  QueryKind = "similar"
)

// IsValid checks if the kind is one of the supported values.
func (k QueryKind) IsValid() bool {
	return k == KindLexical || k == KindSemantic || k == KindHybrid || k == KindSimilar
}

// QueryLogEntry is one executed query, recorded for offline relevance
// analysis. Immutable once written except for the click-id append.
type QueryLogEntry struct {
	ID             string
	IssuedBy       string // empty for anonymous queries
	QueryText      string
	Kind           QueryKind
	AppliedFilters string
	ResultCount    int
	TopResultID    string
	TopResultScore float64
	LatencyMs      int64
	ClickedIDs     []string
	CreatedAt      time.Time
}
