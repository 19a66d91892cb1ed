package domain

import "errors"

var (
	// ErrConnection signals an unreachable database or model endpoint.
	ErrConnection = errors.New("connection error")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrTimeout signals that a bounded wait expired before convergence.
	ErrTimeout = errors.New("timeout")
	// ErrConfiguration signals malformed or incomplete settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidSpecification signals an invalid search index specification.
	ErrInvalidSpecification = errors.New("invalid index specification")
	// ErrModelProvider signals a model provider API failure.
	ErrModelProvider = errors.New("model provider error")
)
