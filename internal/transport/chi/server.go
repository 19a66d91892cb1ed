package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/provider"
	healthuc "github.com/kailas-cloud/chunkdex/internal/usecase/health"
)

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// ModelInfoProvider describes the configured models.
type ModelInfoProvider interface {
	ModelInfo() provider.ModelInfo
}

// IndexReporter reports the current search index statuses of a collection.
type IndexReporter interface {
	Check(ctx context.Context, collection string, expected ...string) ([]index.Status, bool, error)
}

// IndexProvisioner submits search index creation requests.
type IndexProvisioner interface {
	Provision(ctx context.Context, collection string, specs []index.Specification) ([]index.CreationResult, error)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// IndexStatus is one entry of IndexListResponse.
type IndexStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Queryable bool   `json:"queryable"`
}

// IndexListResponse is the body of GET /v1/indexes.
type IndexListResponse struct {
	Collection string        `json:"collection"`
	Converged  bool          `json:"converged"`
	Indexes    []IndexStatus `json:"indexes"`
}

// CreationResult is one entry of ProvisionResponse.
type CreationResult struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Ack            string `json:"ack,omitempty"`
	AlreadyExisted bool   `json:"already_existed"`
}

// ProvisionResponse is the body of POST /v1/indexes.
type ProvisionResponse struct {
	Collection string           `json:"collection"`
	Results    []CreationResult `json:"results"`
}

// Server serves the diagnostics API.
type Server struct {
	health      HealthChecker
	models      ModelInfoProvider
	indexes     IndexReporter
	provisioner IndexProvisioner
	collection  string
	specs       []index.Specification
	logger      *zap.Logger
}

// NewServer creates a diagnostics server for collection. specs are the
// indexes the collection is expected to carry.
func NewServer(
	health HealthChecker,
	models ModelInfoProvider,
	indexes IndexReporter,
	provisioner IndexProvisioner,
	collection string,
	specs []index.Specification,
	logger *zap.Logger,
) *Server {
	return &Server{
		health:      health,
		models:      models,
		indexes:     indexes,
		provisioner: provisioner,
		collection:  collection,
		specs:       specs,
		logger:      logger,
	}
}

// Register mounts the routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", s.GetModels)
		r.Get("/indexes", s.ListIndexes)
		r.Post("/indexes", s.ProvisionIndexes)
	})
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

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// GetModels handles GET /v1/models.
func (s *Server) GetModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.models.ModelInfo())
}

// ListIndexes handles GET /v1/indexes.
func (s *Server) ListIndexes(w http.ResponseWriter, r *http.Request) {
	statuses, converged, err := s.indexes.Check(r.Context(), s.collection, index.Names(s.specs)...)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]IndexStatus, len(statuses))
	for i, st := range statuses {
		items[i] = IndexStatus{
			Name:      st.Name,
			Status:    string(st.Status),
			Queryable: st.Queryable,
		}
	}

	writeJSON(w, http.StatusOK, IndexListResponse{
		Collection: s.collection,
		Converged:  converged,
		Indexes:    items,
	})
}

// ProvisionIndexes handles POST /v1/indexes. It submits the creation
// requests and returns without waiting for the indexes to build.
func (s *Server) ProvisionIndexes(w http.ResponseWriter, r *http.Request) {
	results, err := s.provisioner.Provision(r.Context(), s.collection, s.specs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]CreationResult, len(results))
	for i, res := range results {
		items[i] = CreationResult{
			Name:           res.Name,
			Kind:           string(res.Kind),
			Ack:            res.Ack,
			AlreadyExisted: res.AlreadyExisted,
		}
	}

	writeJSON(w, http.StatusAccepted, ProvisionResponse{
		Collection: s.collection,
		Results:    items,
	})
}
