package querylog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assochq/membersearch/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	createErr    error
	appendErr    error
	created      *domain.QueryLogEntry
	appendedTo   string
	appendedID   string
	appendCalled bool
}

func (m *mockRepo) Create(_ context.Context, e *domain.QueryLogEntry) error {
	m.created = e
	return m.createErr
}

func (m *mockRepo) AppendClick(_ context.Context, entryID, contentID string) error {
	m.appendCalled = true
	m.appendedTo = entryID
	m.appendedID = contentID
	return m.appendErr
}

func (m *mockRepo) Get(_ context.Context, _ string) (domain.QueryLogEntry, error) {
	if m.created == nil {
		return domain.QueryLogEntry{}, domain.ErrLogEntryNotFound
	}
	return *m.created, nil
}

// --- Tests ---

func TestRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	id, err := svc.Record(context.Background(), Record{
		IssuedBy:       "member-7",
		QueryText:      "tax deduction webinar",
		Kind:           domain.KindLexical,
		ResultCount:    3,
		TopResultID:    "event/tax-webinar",
		TopResultScore: 8.1,
		Latency:        42 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated entry id")
	}
	if repo.created == nil {
		t.Fatal("entry not persisted")
	}
	if repo.created.ID != id {
		t.Errorf("persisted id %q != returned id %q", repo.created.ID, id)
	}
	if repo.created.LatencyMs != 42 {
		t.Errorf("latency not converted: %d", repo.created.LatencyMs)
	}
	if repo.created.CreatedAt.IsZero() {
		t.Error("created timestamp not set")
	}
}

func TestRecord_InvalidKind(t *testing.T) {
	svc := New(&mockRepo{})
	_, err := svc.Record(context.Background(), Record{Kind: "telepathic"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestRecordClick(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	if err := svc.RecordClick(context.Background(), "log-1", "faq/parking"); err != nil {
		t.Fatalf("RecordClick: %v", err)
	}
	if repo.appendedTo != "log-1" || repo.appendedID != "faq/parking" {
		t.Errorf("click not forwarded: %q %q", repo.appendedTo, repo.appendedID)
	}
}

func TestRecordClick_MissingEntryIsNoOp(t *testing.T) {
	repo := &mockRepo{appendErr: domain.ErrLogEntryNotFound}
	svc := New(repo)

	if err := svc.RecordClick(context.Background(), "expired", "faq/parking"); err != nil {
		t.Errorf("click on missing entry must be silent, got %v", err)
	}
	if !repo.appendCalled {
		t.Error("append should still be attempted")
	}
}

func TestRecordClick_Validation(t *testing.T) {
	svc := New(&mockRepo{})
	if err := svc.RecordClick(context.Background(), "", "x"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for empty entry id, got %v", err)
	}
	if err := svc.RecordClick(context.Background(), "log-1", ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for empty content id, got %v", err)
	}
}

func TestRecordClick_OtherErrorsPropagate(t *testing.T) {
	repo := &mockRepo{appendErr: errors.New("store down")}
	svc := New(repo)
	if err := svc.RecordClick(context.Background(), "log-1", "x"); err == nil {
		t.Error("expected store error to propagate")
	}
}
