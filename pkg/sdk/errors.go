package chunkdex

import (
	"errors"

	"github.com/kailas-cloud/chunkdex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConnection           = domain.ErrConnection
	ErrAlreadyExists        = domain.ErrAlreadyExists
	ErrTimeout              = domain.ErrTimeout
	ErrConfiguration        = domain.ErrConfiguration
	ErrInvalidSpecification = domain.ErrInvalidSpecification
	ErrModelProvider        = domain.ErrModelProvider

	// ErrModelsNotConfigured is returned by model operations when the client
	// was built without WithModels.
	ErrModelsNotConfigured = errors.New("chunkdex: models not configured (use WithModels)")
)
