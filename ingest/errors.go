package ingest

import "errors"

var (
	// ErrInterrupted indicates the run stopped before completing; progress
	// up to the last saved checkpoint is durable and the run can resume.
	ErrInterrupted = errors.New("ingestion interrupted")

	// ErrNoPages indicates a document with nothing to process.
	ErrNoPages = errors.New("document has no pages")
)
