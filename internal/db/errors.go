package db

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/chunkdex/internal/domain"
)

// Sentinel errors for database operations.
var (
	ErrIndexExists            = fmt.Errorf("db: index %w", domain.ErrAlreadyExists)
	ErrTextSearchNotSupported = errors.New("db: text search not supported by backend")
)

// Op constants name the backend call for error context.
const (
	OpPing        = "PING"
	OpCreateIndex = "CREATE_SEARCH_INDEX"
	OpListIndexes = "LIST_SEARCH_INDEXES"
	OpIndexInfo   = "FT.INFO"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
