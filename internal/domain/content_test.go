package domain

import (
	"testing"
)

func TestNewContentKey(t *testing.T) {
	key, err := NewContentKey(TypeEvent, "annual-gala-2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.String() != "event/annual-gala-2026" {
		t.Errorf("unexpected rendering: %q", key.String())
	}

	if _, err := NewContentKey("widget", "x"); err == nil {
		t.Error("expected error for unknown content type")
	}
	if _, err := NewContentKey(TypeEvent, ""); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := NewContentKey(TypeEvent, "has space"); err == nil {
		t.Error("expected error for id with space")
	}
	if _, err := NewContentKey(TypeEvent, "has/slash"); err == nil {
		t.Error("expected error for id with slash")
	}
}

func TestParseContentKey_RoundTrip(t *testing.T) {
	key, err := NewContentKey(TypeFAQ, "refund-policy")
	if err != nil {
		t.Fatalf("NewContentKey: %v", err)
	}
	parsed, err := ParseContentKey(key.String())
	if err != nil {
		t.Fatalf("ParseContentKey: %v", err)
	}
	if parsed != key {
		t.Errorf("round trip mismatch: %v != %v", parsed, key)
	}

	if _, err := ParseContentKey("no-separator"); err == nil {
		t.Error("expected error for malformed key")
	}
	if _, err := ParseContentKey("widget/x"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestLexicalFields_IsEmpty(t *testing.T) {
	if !(LexicalFields{}).IsEmpty() {
		t.Error("zero fields should be empty")
	}
	if (LexicalFields{Title: "t"}).IsEmpty() {
		t.Error("title alone should not be empty")
	}
	if (LexicalFields{Tags: []string{"a"}}).IsEmpty() {
		t.Error("tags alone should not be empty")
	}
}

func TestIndexedContent_Accessors(t *testing.T) {
	key, _ := NewContentKey(TypeCourse, "go-101")
	vec := []float32{0.1, 0.2}
	lex := LexicalFields{Title: "Intro to Go"}
	meta := map[string]string{"level": "basic"}

	row := NewIndexedContent(key, vec, lex, meta)

	if row.Key() != key {
		t.Errorf("key mismatch: %v", row.Key())
	}
	if !row.HasVector() || len(row.Vector()) != 2 {
		t.Error("vector not preserved")
	}
	if !row.HasLexical() || row.Lexical().Title != "Intro to Go" {
		t.Error("lexical fields not preserved")
	}
	if row.Metadata()["level"] != "basic" {
		t.Error("metadata not preserved")
	}
	if row.UpdatedAt().IsZero() {
		t.Error("updated timestamp not set")
	}

	bare := NewIndexedContent(key, nil, LexicalFields{}, nil)
	if bare.HasVector() || bare.HasLexical() {
		t.Error("bare row should have neither vector nor lexical fields")
	}
}
