package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/test", "200"))

	req := httptest.NewRequest("GET", "/api/test", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/test", "200"))
	if after-before != 1 {
		t.Errorf("counter delta: got %v, want 1", after-before)
	}
}

func TestMiddleware_RecordsStatusCode(t *testing.T) {
	cases := []struct {
		name   string
		status int
	}{
		{"ok", http.StatusOK},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Use(Middleware())
			r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			label := strconv.Itoa(tc.status)
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/status", label))

			req := httptest.NewRequest("GET", "/api/status", nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/status", label))
			if got-before != 1 {
				t.Errorf("status %d not counted", tc.status)
			}
		})
	}
}

func TestMiddleware_ObservesDuration(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/timed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/timed", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected at least one duration series")
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("empty path: got %q", got)
	}
	if got := normalizePath("/content/{type}/{id}"); got != "/content/{type}/{id}" {
		t.Errorf("route pattern altered: got %q", got)
	}
}
