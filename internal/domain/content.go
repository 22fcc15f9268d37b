package domain

import (
	"fmt"
	"strings"
	"time"
)

// KeyPrefix namespaces all storage keys.
const KeyPrefix = "membersearch:"

// ContentType identifies the kind of entity an indexed item refers to.
type ContentType string

// Indexable content types.
const (
	TypeMemberProfile ContentType = "member_profile"
	TypeEvent         ContentType = "event"
	TypeCourse        ContentType = "course"
	TypeLesson        ContentType = "lesson"
	TypeDocument      ContentType = "document"
	TypeFAQ           ContentType = "faq"
	TypeArticle       ContentType = "article"
)

// IsValid checks if the content type is one of the supported values.
func (t ContentType) IsValid() bool {
	switch t {
	case TypeMemberProfile, TypeEvent, TypeCourse, TypeLesson, TypeDocument, TypeFAQ, TypeArticle:
		return true
	}
	return false
}

// ContentKey is the identity of an indexed item: (type, id) together,
// never reused for a different underlying entity.
type ContentKey struct {
	Type ContentType
	ID   string
}

// NewContentKey validates and creates a content key.
func NewContentKey(t ContentType, id string) (ContentKey, error) {
	if !t.IsValid() {
		return ContentKey{}, fmt.Errorf("invalid content type %q", t)
	}
	if id == "" {
		return ContentKey{}, fmt.Errorf("content id is required")
	}
	if strings.ContainsAny(id, " \t\n/") {
		return ContentKey{}, fmt.Errorf("content id %q contains invalid characters", id)
	}
	return ContentKey{Type: t, ID: id}, nil
}

// String renders the key in "type/id" form, used as the storage and
// index document identifier.
func (k ContentKey) String() string {
	return string(k.Type) + "/" + k.ID
}

// ParseContentKey parses a "type/id" string back into a ContentKey.
func ParseContentKey(s string) (ContentKey, error) {
	t, id, ok := strings.Cut(s, "/")
	if !ok {
		return ContentKey{}, fmt.Errorf("malformed content key %q", s)
	}
	return NewContentKey(ContentType(t), id)
}

// LexicalFields are the searchable text fields of a content item,
// indexed with descending weight: title, description, body, tags.
type LexicalFields struct {
	Title       string
	Description string
	Body        string
	Tags        []string
}

// IsEmpty reports whether no lexical text was supplied.
func (f LexicalFields) IsEmpty() bool {
	return f.Title == "" && f.Description == "" && f.Body == "" && len(f.Tags) == 0
}

// IndexedContent is one searchable row. A row may carry only a vector,
// only lexical fields, or both; ranking degrades to whichever side is
// present.
type IndexedContent struct {
	key      ContentKey
	vector   []float32
	lexical  LexicalFields
	metadata map[string]string
	updated  time.Time
}

// NewIndexedContent creates a content row. A nil vector means no
// embedding has been supplied yet.
func NewIndexedContent(
	key ContentKey, vector []float32, lexical LexicalFields, metadata map[string]string,
) IndexedContent {
	return IndexedContent{
		key:      key,
		vector:   vector,
		lexical:  lexical,
		metadata: metadata,
		updated:  time.Now().UTC(),
	}
}

// Reconstruct rebuilds a row from storage without touching the
// updated timestamp.
func Reconstruct(
	key ContentKey, vector []float32, lexical LexicalFields,
	metadata map[string]string, updated time.Time,
) IndexedContent {
	return IndexedContent{key: key, vector: vector, lexical: lexical, metadata: metadata, updated: updated}
}

// Key returns the item identity.
func (c *IndexedContent) Key() ContentKey { return c.key }

// Vector returns the embedding, nil when none is stored.
func (c *IndexedContent) Vector() []float32 { return c.vector }

// HasVector reports whether an embedding is stored.
func (c *IndexedContent) HasVector() bool { return len(c.vector) > 0 }

// Lexical returns the text fields.
func (c *IndexedContent) Lexical() LexicalFields { return c.lexical }

// HasLexical reports whether any lexical text is stored.
func (c *IndexedContent) HasLexical() bool { return !c.lexical.IsEmpty() }

// Metadata returns the open key-value map.
func (c *IndexedContent) Metadata() map[string]string { return c.metadata }

// UpdatedAt returns the last write time.
func (c *IndexedContent) UpdatedAt() time.Time { return c.updated }
