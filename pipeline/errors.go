package pipeline

import "errors"

var (
	// ErrNoRecords is returned when a document has no stored page records.
	ErrNoRecords = errors.New("no page records for document")

	// ErrEmbeddingFailed is returned when a chunk batch could not be
	// embedded after all retries.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrVectorCountMismatch is returned when the embedder returns a
	// different number of vectors than texts submitted.
	ErrVectorCountMismatch = errors.New("embedder returned wrong vector count")
)
