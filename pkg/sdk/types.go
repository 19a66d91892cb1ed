package chunkdex

import (
	"time"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/provider"
)

// IndexKind distinguishes search index kinds.
type IndexKind string

// Index kind constants.
const (
	IndexVector IndexKind = "vector"
	IndexText   IndexKind = "text"
)

// StatusPending is the status of an index that is still being built.
const StatusPending = string(index.StatusPending)

// IndexStatus is one search index as reported by the database.
type IndexStatus struct {
	Name      string
	Status    string
	Queryable bool
}

// Pending reports whether the index is still being built.
func (s IndexStatus) Pending() bool { return s.Status == StatusPending }

// CreationResult is the acknowledgement of one index creation request.
type CreationResult struct {
	Name           string
	Kind           IndexKind
	Ack            string
	AlreadyExisted bool
}

// Readiness describes a finished AwaitReady call.
type Readiness struct {
	Polls   int
	Elapsed time.Duration
	Indexes []IndexStatus
}

// ModelSettings configures the OpenAI-compatible model endpoints.
type ModelSettings struct {
	Provider       string
	Model          string
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	Timeout        time.Duration
}

// ModelInfo describes the configured models without credentials.
type ModelInfo struct {
	LLMProvider    string
	LLMModel       string
	LLMBaseURL     string
	EmbeddingModel string
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"/"pending"
}

func toIndexStatuses(in []index.Status) []IndexStatus {
	out := make([]IndexStatus, len(in))
	for i, s := range in {
		out[i] = IndexStatus{Name: s.Name, Status: string(s.Status), Queryable: s.Queryable}
	}
	return out
}

func toCreationResults(in []index.CreationResult) []CreationResult {
	out := make([]CreationResult, len(in))
	for i, r := range in {
		out[i] = CreationResult{
			Name:           r.Name,
			Kind:           IndexKind(r.Kind),
			Ack:            r.Ack,
			AlreadyExisted: r.AlreadyExisted,
		}
	}
	return out
}

func toProviderSettings(s ModelSettings, dim int) provider.Settings {
	return provider.Settings{
		Provider:            s.Provider,
		Model:               s.Model,
		BaseURL:             s.BaseURL,
		APIKey:              s.APIKey,
		EmbeddingModel:      s.EmbeddingModel,
		EmbeddingDimensions: dim,
		Timeout:             s.Timeout,
	}
}
