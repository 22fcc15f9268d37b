package health

import (
	"context"
	"errors"
	"testing"

	"github.com/assochq/membersearch/internal/index"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct{ err error }

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockStats struct{ stats index.Stats }

func (m *mockStats) Stats() index.Stats { return m.stats }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{}, &mockStats{stats: index.Stats{Rows: 10}})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if report.Checks["database"] != CheckOK || report.Checks["embedding"] != CheckOK {
		t.Errorf("unexpected checks: %v", report.Checks)
	}
	if report.Index.Rows != 10 {
		t.Errorf("index stats not included: %+v", report.Index)
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, nil, &mockStats{})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.Checks["database"] != CheckError {
		t.Errorf("unexpected checks: %v", report.Checks)
	}
}

func TestCheck_NilEmbedderSkipped(t *testing.T) {
	svc := New(&mockPinger{}, nil, &mockStats{})

	report := svc.Check(context.Background())
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check should be absent without a provider")
	}
	if report.Status != Healthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
}
