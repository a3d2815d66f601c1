package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when retry is configured with
	// zero or negative attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrVectorRepositoryRequired is returned when a vector repository is not provided.
	ErrVectorRepositoryRequired = errors.New("vector repository required")
)
