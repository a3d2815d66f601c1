package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrNoIngestableFiles is returned when a directory contains no files
	// with an ingestable extension.
	ErrNoIngestableFiles = errors.New("no ingestable files found")
)
