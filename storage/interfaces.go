package storage

import (
	"context"

	"github.com/poiesic/narrator/core"
)

// CheckpointStore persists resume checkpoints for in-flight document
// ingestion. Implementations must be thread-safe.
type CheckpointStore interface {
	// SaveCheckpoint durably records progress for a document. A crash after
	// SaveCheckpoint returns must leave either the previous checkpoint or the
	// new one fully intact, never a torn write.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a document, keyed by
	// core.DocumentID of its path. Returns (nil, nil) when no checkpoint
	// exists; absence is not an error.
	LoadCheckpoint(ctx context.Context, docID string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a document. Clearing a
	// checkpoint that does not exist is a no-op.
	ClearCheckpoint(ctx context.Context, docID string) error
}

// PageRecordStore persists per-page extraction results so that a resumed run
// does not re-extract completed pages. Implementations must be thread-safe.
type PageRecordStore interface {
	// AppendPageRecords stores extraction results for one or more pages.
	// Existing records for the same (docID, page) are overwritten.
	AppendPageRecords(ctx context.Context, docID string, records ...*core.PageText) error

	// GetPageRecords retrieves all stored page records for a document,
	// ordered by page number ascending.
	GetPageRecords(ctx context.Context, docID string) ([]*core.PageText, error)

	// CountPageRecords reports how many page records exist for a document.
	CountPageRecords(ctx context.Context, docID string) (int, error)

	// DeletePageRecords removes every page record for a document.
	DeletePageRecords(ctx context.Context, docID string) error

	// Close releases backend resources.
	Close() error
}

// Store combines checkpoint and page record persistence behind a single
// backend handle.
type Store interface {
	CheckpointStore
	PageRecordStore
}
