// Package index holds the live in-process search structures: the
// content table, the partitioned approximate-nearest-neighbor vector
// index, and the bleve lexical index. Durability lives in the
// repositories; this package is rebuilt from them at startup.
package index

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/assochq/membersearch/internal/domain"
	"github.com/assochq/membersearch/internal/domain/search/filter"
	"github.com/assochq/membersearch/internal/domain/search/result"
)

// Engine is the queryable composite of all in-process indexes.
// Queries are pure reads; ingestion and the background rebuild are the
// only writers.
type Engine struct {
	dim    int
	table  *table
	ann    *annIndex
	lex    *lexicalIndex
	logger *zap.Logger
}

// Stats reports index population counts.
type Stats struct {
	Rows           int
	LexicalDocs    uint64
	VectorsIndexed int
	VectorsPending int
}

// NewEngine creates an empty engine for a fixed vector dimension.
// probes sets the default ANN candidate-list size; 0 uses the
// package default.
func NewEngine(dim, probes int, logger *zap.Logger) (*Engine, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dim)
	}
	lex, err := newLexicalIndex()
	if err != nil {
		return nil, err
	}
	return &Engine{
		dim:    dim,
		table:  newTable(),
		ann:    newANNIndex(probes),
		lex:    lex,
		logger: logger,
	}, nil
}

// Bootstrap loads durable rows and batch-builds the ANN snapshot.
// Called once at startup before the engine serves queries.
func (e *Engine) Bootstrap(rows []domain.IndexedContent) error {
	for i := range rows {
		row := rows[i]
		if row.HasVector() && len(row.Vector()) != e.dim {
			// A row persisted under a different embedding model; skip
			// its vector side rather than refusing to start.
			e.logger.Warn("skipping vector with stale dimension",
				zap.String("key", row.Key().String()),
				zap.Int("got", len(row.Vector())),
				zap.Int("want", e.dim),
			)
			row = domain.Reconstruct(row.Key(), nil, row.Lexical(), row.Metadata(), row.UpdatedAt())
		}
		e.table.set(row)
		if err := e.lex.upsert(&row); err != nil {
			return err
		}
	}
	e.Rebuild()
	return nil
}

// Upsert replaces the key's entry in every index. A wrong-dimension
// vector fails before any structure is touched, leaving prior state
// intact.
func (e *Engine) Upsert(row *domain.IndexedContent) error {
	if row.HasVector() && len(row.Vector()) != e.dim {
		return domain.NewDimensionMismatch(len(row.Vector()), e.dim)
	}

	e.table.set(*row)
	if err := e.lex.upsert(row); err != nil {
		return err
	}
	if row.HasVector() {
		e.ann.upsert(row.Key(), row.Vector())
	} else {
		// No embedding supplied: drop any stale vector for the key.
		e.ann.remove(row.Key())
	}
	return nil
}

// Remove drops the key from every index. Reports ErrContentNotFound
// when the key was never indexed.
func (e *Engine) Remove(key domain.ContentKey) error {
	existed := e.table.remove(key)
	if err := e.lex.remove(key); err != nil {
		return err
	}
	e.ann.remove(key)
	if !existed {
		return domain.ErrContentNotFound
	}
	return nil
}

// Get returns the indexed row for a key.
func (e *Engine) Get(key domain.ContentKey) (domain.IndexedContent, error) {
	row, ok := e.table.get(key)
	if !ok {
		return domain.IndexedContent{}, domain.ErrContentNotFound
	}
	return row, nil
}

// Vector returns the stored embedding for a key. Reports
// ErrEmbeddingNotFound when the row is missing or has no vector.
func (e *Engine) Vector(key domain.ContentKey) ([]float32, error) {
	row, ok := e.table.get(key)
	if !ok || !row.HasVector() {
		return nil, domain.ErrEmbeddingNotFound
	}
	return row.Vector(), nil
}

// Semantic runs nearest-neighbor search. Items failing the type or
// metadata filters are excluded before ranking; results are strictly
// descending by similarity with ties broken by key, thresholded at
// minSimilarity and capped at k.
func (e *Engine) Semantic(
	vector []float32,
	types []domain.ContentType,
	filters filter.Expression,
	k int,
	minSimilarity float64,
	probes int,
) ([]result.Result, error) {
	if len(vector) != e.dim {
		return nil, domain.NewDimensionMismatch(len(vector), e.dim)
	}

	candidates := e.ann.search(vector, k, probes, func(key domain.ContentKey) bool {
		row, ok := e.table.get(key)
		if !ok {
			return false
		}
		if !typeAllowed(key.Type, types) {
			return false
		}
		return filters.IsEmpty() || filters.Matches(row.Metadata())
	})

	results := make([]result.Result, 0, len(candidates))
	for _, c := range candidates {
		if c.similarity < minSimilarity {
			continue
		}
		row, ok := e.table.get(c.key)
		if !ok {
			continue
		}
		lex := row.Lexical()
		results = append(results, result.New(
			c.key, c.similarity, 0, c.similarity, lex.Title, lex.Description, row.Metadata(),
		))
	}
	return results, nil
}

// Lexical runs keyword search over the bleve index, enriching hits
// with display fields from the table.
func (e *Engine) Lexical(
	queryText string, types []domain.ContentType, k int,
) ([]result.Result, error) {
	hits, err := e.lex.search(queryText, types, k)
	if err != nil {
		return nil, err
	}

	results := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		row, ok := e.table.get(h.key)
		if !ok {
			// Removed between index read and table read; skip.
			continue
		}
		lex := row.Lexical()
		results = append(results, result.New(
			h.key, h.rank, h.rank, 0, lex.Title, lex.Description, row.Metadata(),
		))
	}
	return results, nil
}

// Rebuild batch-builds a fresh ANN snapshot from the current table
// and atomically swaps it in. Heavyweight; runs outside the request
// path. Returns the number of vectors indexed.
func (e *Engine) Rebuild() int {
	buildGen := e.ann.generation()

	rows := e.table.snapshot()
	entries := make([]annEntry, 0, len(rows))
	for i := range rows {
		if !rows[i].HasVector() {
			continue
		}
		entries = append(entries, annEntry{key: rows[i].Key(), vec: normalize(rows[i].Vector())})
	}

	snap := buildSnapshot(entries)
	e.ann.swap(snap, buildGen)
	return snap.size
}

// Stats returns index population counts.
func (e *Engine) Stats() Stats {
	indexed, pending := e.ann.counts()
	lexDocs, err := e.lex.docCount()
	if err != nil {
		lexDocs = 0
	}
	return Stats{
		Rows:           e.table.size(),
		LexicalDocs:    lexDocs,
		VectorsIndexed: indexed,
		VectorsPending: pending,
	}
}

// Dimension returns the fixed vector dimension of the engine.
func (e *Engine) Dimension() int { return e.dim }

// Close releases engine resources.
func (e *Engine) Close() error {
	return e.lex.close()
}

func typeAllowed(t domain.ContentType, allowed []domain.ContentType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if t == a {
			return true
		}
	}
	return false
}
