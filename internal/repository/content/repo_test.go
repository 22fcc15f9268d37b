package content

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/assochq/membersearch/internal/db/memory"
	"github.com/assochq/membersearch/internal/domain"
)

func testKey(t *testing.T, id string) domain.ContentKey {
	t.Helper()
	key, err := domain.NewContentKey(domain.TypeArticle, id)
	if err != nil {
		t.Fatalf("NewContentKey: %v", err)
	}
	return key
}

func testRow(t *testing.T, id string) domain.IndexedContent {
	t.Helper()
	return domain.NewIndexedContent(
		testKey(t, id),
		[]float32{0.25, -1.5, 3.75},
		domain.LexicalFields{
			Title:       "Membership renewal guide",
			Description: "How to renew",
			Body:        "Step by step renewal instructions",
			Tags:        []string{"membership", "renewal"},
		},
		map[string]string{"region": "north", "year": "2026"},
	)
}

func TestUpsertGet_RoundTrip(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()
	row := testRow(t, "renewal-guide")

	if err := repo.Upsert(ctx, &row); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, row.Key())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Key() != row.Key() {
		t.Errorf("key mismatch: %v", got.Key())
	}
	if !reflect.DeepEqual(got.Vector(), row.Vector()) {
		t.Errorf("vector mismatch: %v != %v", got.Vector(), row.Vector())
	}
	if !reflect.DeepEqual(got.Lexical(), row.Lexical()) {
		t.Errorf("lexical mismatch: %+v != %+v", got.Lexical(), row.Lexical())
	}
	if !reflect.DeepEqual(got.Metadata(), row.Metadata()) {
		t.Errorf("metadata mismatch: %v != %v", got.Metadata(), row.Metadata())
	}
	if !got.UpdatedAt().Equal(row.UpdatedAt()) {
		t.Errorf("timestamp mismatch: %v != %v", got.UpdatedAt(), row.UpdatedAt())
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	store := memory.NewStore()
	repo := New(store)
	ctx := context.Background()

	// Two independently built rows carry different construction
	// timestamps; identical content must still leave the stored row
	// byte-for-byte untouched.
	first := testRow(t, "renewal-guide")
	if err := repo.Upsert(ctx, &first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	before, err := store.HGetAll(ctx, rowKey(first.Key()))
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}

	second := testRow(t, "renewal-guide")
	if err := repo.Upsert(ctx, &second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	after, err := store.HGetAll(ctx, rowKey(first.Key()))
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}

	if !reflect.DeepEqual(before, after) {
		t.Errorf("repeated upsert changed stored bytes: %v != %v", before, after)
	}
}

func TestUpsert_ChangedContentRewrites(t *testing.T) {
	store := memory.NewStore()
	repo := New(store)
	ctx := context.Background()

	row := testRow(t, "renewal-guide")
	if err := repo.Upsert(ctx, &row); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	before, err := store.HGetAll(ctx, rowKey(row.Key()))
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}

	changed := domain.NewIndexedContent(
		row.Key(), row.Vector(),
		domain.LexicalFields{Title: "Renewal guide, second edition"},
		row.Metadata(),
	)
	if err := repo.Upsert(ctx, &changed); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, row.Key())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Lexical().Title != "Renewal guide, second edition" {
		t.Errorf("changed content not persisted: %q", got.Lexical().Title)
	}
	after, err := store.HGetAll(ctx, rowKey(row.Key()))
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if after[fieldUpdated] == before[fieldUpdated] && !row.UpdatedAt().Equal(changed.UpdatedAt()) {
		t.Error("changed content kept the old timestamp")
	}
}

func TestUpsert_ReplacesNotMerges(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()

	full := testRow(t, "renewal-guide")
	if err := repo.Upsert(ctx, &full); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Same key, no vector and no body: the old vector must not survive.
	trimmed := domain.NewIndexedContent(
		full.Key(), nil, domain.LexicalFields{Title: "Renewal guide v2"}, nil,
	)
	if err := repo.Upsert(ctx, &trimmed); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, full.Key())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.HasVector() {
		t.Error("vector survived a replacing upsert")
	}
	if got.Lexical().Body != "" {
		t.Error("body survived a replacing upsert")
	}
	if got.Lexical().Title != "Renewal guide v2" {
		t.Errorf("unexpected title: %q", got.Lexical().Title)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := New(memory.NewStore())
	_, err := repo.Get(context.Background(), testKey(t, "missing"))
	if !errors.Is(err, domain.ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()
	row := testRow(t, "renewal-guide")

	if err := repo.Upsert(ctx, &row); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Delete(ctx, row.Key()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, row.Key()); !errors.Is(err, domain.ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, row.Key()); !errors.Is(err, domain.ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound for double delete, got %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	store := memory.NewStore()
	repo := New(store)
	ctx := context.Background()

	a := testRow(t, "alpha")
	b := testRow(t, "beta")
	for _, row := range []*domain.IndexedContent{&a, &b} {
		if err := repo.Upsert(ctx, row); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	// A foreign row under the content prefix must be skipped, not fatal.
	if err := store.HSet(ctx, keyPrefix()+"not_a_type/x", map[string]string{"junk": "1"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}

	rows, skipped, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", skipped)
	}
}

func TestVectorBytes_RoundTrip(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3e7}
	got := bytesToVector(vectorToBytes(vec))
	if !reflect.DeepEqual(got, vec) {
		t.Errorf("round trip mismatch: %v != %v", got, vec)
	}

	if vectorToBytes(nil) != "" {
		t.Error("empty vector should encode to empty string")
	}
	if bytesToVector("abc") != nil {
		t.Error("truncated bytes should decode to nil")
	}
}
