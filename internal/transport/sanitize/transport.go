package sanitize

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/metrics"
)

// Transport is an http.RoundTripper that strips surrogate code points from
// JSON request bodies before handing the request to the base transport. It
// keeps no per-request state and is safe for concurrent use.
type Transport struct {
	base   http.RoundTripper
	logger *zap.Logger
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, logger *zap.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{base: base, logger: logger}
}

// RoundTrip implements http.RoundTripper. Errors from the base transport are
// returned unchanged.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header.Get("Content-Type")) {
		return t.base.RoundTrip(req)
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	clean, rewritten := sanitizeBody(body)
	if rewritten {
		metrics.SanitizedRequestsTotal.Inc()
		t.logger.Debug("Replaced surrogate code points in request body",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(clean))
	out.ContentLength = int64(len(clean))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(clean)), nil
	}

	return t.base.RoundTrip(out)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
