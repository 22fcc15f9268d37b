package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/assochq/membersearch/internal/domain"
)

// Per-field relevance boosts. Title matches outrank description
// matches, body text sits at the baseline, tags weigh least.
const (
	boostTitle       = 4.0
	boostDescription = 2.5
	boostBody        = 1.0
	boostTags        = 0.5
)

// lexHit is a scored lexical match before table enrichment.
type lexHit struct {
	key  domain.ContentKey
	rank float64
}

// lexicalIndex is the BM25-family keyword engine, backed by an
// in-memory bleve index rebuilt from durable rows at startup.
type lexicalIndex struct {
	index bleve.Index
}

// newLexicalIndex creates an empty in-memory lexical index.
func newLexicalIndex() (*lexicalIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so query
	// terms match stored words exactly.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = false
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("description", textField)
	docMapping.AddFieldMappingsAt("body", textField)
	docMapping.AddFieldMappingsAt("tags", textField)

	typeField := bleve.NewKeywordFieldMapping()
	typeField.Store = false
	docMapping.AddFieldMappingsAt("content_type", typeField)

	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create lexical index: %w", err)
	}
	return &lexicalIndex{index: idx}, nil
}

// upsert indexes the lexical fields of a row, replacing any prior
// entry for the key. Rows without lexical text are removed so they
// stop matching keyword queries.
func (l *lexicalIndex) upsert(row *domain.IndexedContent) error {
	key := row.Key().String()
	if !row.HasLexical() {
		if err := l.index.Delete(key); err != nil {
			return fmt.Errorf("delete lexical entry %s: %w", key, err)
		}
		return nil
	}

	lex := row.Lexical()
	doc := map[string]any{
		"title":        lex.Title,
		"description":  lex.Description,
		"body":         lex.Body,
		"tags":         lex.Tags,
		"content_type": string(row.Key().Type),
	}
	if err := l.index.Index(key, doc); err != nil {
		return fmt.Errorf("index lexical entry %s: %w", key, err)
	}
	return nil
}

// remove drops a key from the index.
func (l *lexicalIndex) remove(key domain.ContentKey) error {
	if err := l.index.Delete(key.String()); err != nil {
		return fmt.Errorf("delete lexical entry %s: %w", key, err)
	}
	return nil
}

// search treats the query as a bag of terms and returns items
// matching at least one term, ranked by the weighted per-field BM25
// scores. Ties are broken by document id for determinism.
func (l *lexicalIndex) search(queryText string, types []domain.ContentType, limit int) ([]lexHit, error) {
	if limit <= 0 {
		return nil, nil
	}

	fields := bleve.NewDisjunctionQuery(
		fieldMatch(queryText, "title", boostTitle),
		fieldMatch(queryText, "description", boostDescription),
		fieldMatch(queryText, "body", boostBody),
		fieldMatch(queryText, "tags", boostTags),
	)

	var q blevequery.Query = fields
	if len(types) > 0 {
		typeClauses := make([]blevequery.Query, len(types))
		for i, t := range types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("content_type")
			// The type clause is a pure filter; keep it out of scoring.
			tq.SetBoost(0)
			typeClauses[i] = tq
		}
		bq := bleve.NewBooleanQuery()
		bq.AddMust(fields)
		bq.AddMust(bleve.NewDisjunctionQuery(typeClauses...))
		q = bq
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.SortBy([]string{"-_score", "_id"})

	res, err := l.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	hits := make([]lexHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		key, err := domain.ParseContentKey(hit.ID)
		if err != nil {
			continue
		}
		hits = append(hits, lexHit{key: key, rank: hit.Score})
	}
	return hits, nil
}

// docCount returns the number of lexically indexed items.
func (l *lexicalIndex) docCount() (uint64, error) {
	n, err := l.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("lexical doc count: %w", err)
	}
	return n, nil
}

// close releases the underlying index.
func (l *lexicalIndex) close() error {
	if err := l.index.Close(); err != nil {
		return fmt.Errorf("close lexical index: %w", err)
	}
	return nil
}

func fieldMatch(text, field string, boost float64) blevequery.Query {
	mq := bleve.NewMatchQuery(text)
	mq.SetField(field)
	mq.SetBoost(boost)
	return mq
}
