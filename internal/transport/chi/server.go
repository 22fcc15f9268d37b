// Package chi exposes the search and ingest services over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/assochq/membersearch/internal/domain"
	"github.com/assochq/membersearch/internal/domain/search/filter"
	"github.com/assochq/membersearch/internal/domain/search/request"
	"github.com/assochq/membersearch/internal/domain/search/result"
	"github.com/assochq/membersearch/internal/metrics"
	healthuc "github.com/assochq/membersearch/internal/usecase/health"
	ingestuc "github.com/assochq/membersearch/internal/usecase/ingest"
	maintenanceuc "github.com/assochq/membersearch/internal/usecase/maintenance"
	queryloguc "github.com/assochq/membersearch/internal/usecase/querylog"
	searchuc "github.com/assochq/membersearch/internal/usecase/search"
	"github.com/assochq/membersearch/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Config holds transport-level settings.
type Config struct {
	// Default fusion weights for hybrid requests that omit their own.
	KeywordWeight  float64
	SemanticWeight float64
}

// Server wires the use-case services into HTTP handlers.
type Server struct {
	ingest        *ingestuc.Service
	search        *searchuc.Service
	querylog      *queryloguc.Service
	maintenance   *maintenanceuc.Service
	health        *healthuc.Service
	embedder      domain.Embedder
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. embedder may be nil; semantic
// and hybrid requests then require an explicit query vector.
func NewServer(
	ingest *ingestuc.Service,
	search *searchuc.Service,
	querylog *queryloguc.Service,
	maintenance *maintenanceuc.Service,
	health *healthuc.Service,
	embedder domain.Embedder,
	cfg Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:      ingest,
		search:      search,
		querylog:    querylog,
		maintenance: maintenance,
		health:      health,
		embedder:    embedder,
		cfg:         cfg,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		dimensionMismatchHandler,
		sentinelHandler(domain.ErrContentNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmbeddingNotFound, http.StatusUnprocessableEntity, codeNoEmbedding),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes registers every endpoint on the given router. Middleware is
// the caller's concern; routes must be added after the chain is set.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Put("/content/{type}/{id}", s.UpsertContent)
	r.Delete("/content/{type}/{id}", s.RemoveContent)
	r.Post("/content/{type}/{id}/similar", s.FindSimilar)

	r.Post("/search", s.Search)
	r.Post("/querylog/{id}/clicks", s.RecordClick)
	r.Post("/index/rebuild", s.RebuildIndex)
}

// UpsertContent handles PUT /content/{type}/{id}.
func (s *Server) UpsertContent(w http.ResponseWriter, r *http.Request) {
	key, ok := s.contentKeyFromURL(w, r)
	if !ok {
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	lexical := domain.LexicalFields{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Tags:        req.Tags,
	}

	if err := s.ingest.Upsert(r.Context(), key, req.Vector, lexical, req.Metadata); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveContent handles DELETE /content/{type}/{id}.
func (s *Server) RemoveContent(w http.ResponseWriter, r *http.Request) {
	key, ok := s.contentKeyFromURL(w, r)
	if !ok {
		return
	}

	if err := s.ingest.Remove(r.Context(), key); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search handles POST /search. mode selects the lexical, semantic, or
// hybrid entry point; every executed query is logged off the critical
// path and the log id is returned for click attribution.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	filters, err := filtersFromDTO(req.Filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	kind := domain.QueryKind(req.Mode)
	if kind == domain.KindSimilar || !kind.IsValid() {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"mode must be lexical, semantic, or hybrid")
		return
	}

	start := time.Now()
	results, err := s.dispatchSearch(r, &req, kind, filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	took := time.Since(start)

	metrics.SearchRequestsTotal.WithLabelValues(string(kind), "success").Inc()
	metrics.SearchRequestDuration.WithLabelValues(string(kind)).Observe(took.Seconds())
	metrics.SearchResultsReturned.WithLabelValues(string(kind)).Observe(float64(len(results)))

	logID := s.querylog.RecordAsync(s.logger, queryRecord(&req, kind, filters, results, took))

	items := make([]resultItem, len(results))
	for i := range results {
		items[i] = resultToDTO(&results[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items:      items,
		Total:      len(items),
		QueryLogID: logID,
	})
}

func (s *Server) dispatchSearch(
	r *http.Request,
	req *searchRequest,
	kind domain.QueryKind,
	filters filter.Expression,
) ([]result.Result, error) {
	types := typesFromStrings(req.Types)
	limit := limitOrDefault(req.Limit)

	switch kind {
	case domain.KindLexical:
		// Lexical ranking has no metadata filter; reject rather than
		// log filters that never constrained the query.
		if !filters.IsEmpty() {
			return nil, invalid(errors.New("metadata filters are not supported in lexical mode"))
		}
		lexReq, err := request.NewLexical(req.Query, types, limit)
		if err != nil {
			return nil, invalid(err)
		}
		return s.search.LexicalSearch(r.Context(), &lexReq)

	case domain.KindSemantic:
		vector, err := s.queryVector(r, req)
		if err != nil {
			return nil, err
		}
		semReq, err := request.NewSemantic(vector, types, filters, limit, req.MinScore, req.Probes)
		if err != nil {
			return nil, invalid(err)
		}
		return s.search.SemanticSearch(r.Context(), &semReq)

	default: // hybrid
		vector, err := s.queryVector(r, req)
		if err != nil {
			return nil, err
		}
		kw, sw := s.cfg.KeywordWeight, s.cfg.SemanticWeight
		if req.KeywordWeight != nil {
			kw = *req.KeywordWeight
		}
		if req.SemanticWeight != nil {
			sw = *req.SemanticWeight
		}
		hybReq, err := request.NewHybrid(req.Query, vector, types, filters, limit, kw, sw)
		if err != nil {
			return nil, invalid(err)
		}
		return s.search.HybridSearch(r.Context(), &hybReq)
	}
}

// queryVector returns the request vector, embedding the query text
// when no vector was supplied and a provider is configured.
func (s *Server) queryVector(r *http.Request, req *searchRequest) ([]float32, error) {
	if len(req.Vector) > 0 {
		return req.Vector, nil
	}
	if s.embedder == nil || req.Query == "" {
		return nil, invalid(errors.New("vector is required when no embedding provider is configured"))
	}
	res, err := s.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

// FindSimilar handles POST /content/{type}/{id}/similar.
func (s *Server) FindSimilar(w http.ResponseWriter, r *http.Request) {
	key, ok := s.contentKeyFromURL(w, r)
	if !ok {
		return
	}

	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	simReq, err := request.NewSimilar(key, limitOrDefault(req.Limit))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	start := time.Now()
	results, err := s.search.FindSimilar(r.Context(), &simReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	took := time.Since(start)

	metrics.SearchRequestsTotal.WithLabelValues(string(domain.KindSimilar), "success").Inc()
	metrics.SearchRequestDuration.WithLabelValues(string(domain.KindSimilar)).Observe(took.Seconds())

	logID := s.querylog.RecordAsync(s.logger, queryloguc.Record{
		QueryText:      key.String(),
		Kind:           domain.KindSimilar,
		ResultCount:    len(results),
		TopResultID:    topResultID(results),
		TopResultScore: topResultScore(results),
		Latency:        took,
	})

	items := make([]resultItem, len(results))
	for i := range results {
		items[i] = resultToDTO(&results[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Items:      items,
		Total:      len(items),
		QueryLogID: logID,
	})
}

// RecordClick handles POST /querylog/{id}/clicks. Always 202 for
// well-formed requests: a click on an expired log entry is dropped.
func (s *Server) RecordClick(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.querylog.RecordClick(r.Context(), entryID, req.ContentID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// RebuildIndex handles POST /index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	size := s.maintenance.Rebuild(r.Context())
	metrics.IndexRebuildsTotal.Inc()
	metrics.IndexVectors.Set(float64(size))
	writeJSON(w, http.StatusOK, rebuildResponse{Vectors: size})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:         string(report.Status),
		Checks:         checks,
		Rows:           report.Index.Rows,
		LexicalDocs:    report.Index.LexicalDocs,
		VectorsIndexed: report.Index.VectorsIndexed,
		VectorsPending: report.Index.VectorsPending,
		Version:        version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) contentKeyFromURL(w http.ResponseWriter, r *http.Request) (domain.ContentKey, bool) {
	key, err := domain.NewContentKey(
		domain.ContentType(chi.URLParam(r, "type")),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return domain.ContentKey{}, false
	}
	return key, true
}

func queryRecord(
	req *searchRequest,
	kind domain.QueryKind,
	filters filter.Expression,
	results []result.Result,
	took time.Duration,
) queryloguc.Record {
	rec := queryloguc.Record{
		IssuedBy:       req.IssuedBy,
		QueryText:      req.Query,
		Kind:           kind,
		AppliedFilters: filters.String(),
		ResultCount:    len(results),
		TopResultID:    topResultID(results),
		TopResultScore: topResultScore(results),
		Latency:        took,
	}
	return rec
}

func topResultID(results []result.Result) string {
	if len(results) == 0 {
		return ""
	}
	return results[0].Key().String()
}

func topResultScore(results []result.Result) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Score()
}

func invalid(err error) error {
	return errors.Join(domain.ErrInvalidRequest, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrContentNotFound,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingNotFound,
		domain.ErrInvalidFilter,
		domain.ErrInvalidRequest,
		domain.ErrLogEntryNotFound,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// dimensionMismatchHandler reports the got/want sizes when available.
func dimensionMismatchHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}
	var dme *domain.DimensionMismatchError
	if errors.As(err, &dme) {
		writeError(w, http.StatusBadRequest, codeDimMismatch, dme.Error())
		return true
	}
	writeError(w, http.StatusBadRequest, codeDimMismatch, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
