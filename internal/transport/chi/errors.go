package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/domain"
	logpkg "github.com/kailas-cloud/chunkdex/internal/logger"
)

// ErrorCode is a machine-readable error code in API responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeInvalidSpecification ErrorCode = "invalid_specification"
	ErrorCodeConfiguration        ErrorCode = "configuration_error"
	ErrorCodeDatabaseUnavailable  ErrorCode = "database_unavailable"
	ErrorCodeModelProviderError   ErrorCode = "model_provider_error"
	ErrorCodeTimeout              ErrorCode = "timeout"
	ErrorCodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrInvalidSpecification, http.StatusBadRequest, ErrorCodeInvalidSpecification),
	sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, ErrorCodeConfiguration),
	sentinelHandler(domain.ErrConnection, http.StatusServiceUnavailable, ErrorCodeDatabaseUnavailable),
	sentinelHandler(domain.ErrModelProvider, http.StatusBadGateway, ErrorCodeModelProviderError),
	sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, ErrorCodeTimeout),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidSpecification,
		domain.ErrConfiguration,
		domain.ErrConnection,
		domain.ErrModelProvider,
		domain.ErrTimeout,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
