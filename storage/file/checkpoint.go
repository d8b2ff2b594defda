// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package file implements storage.CheckpointStore on plain JSON files.
//
// Each checkpoint lives in its own file named <docID>.checkpoint.json under
// the store directory. JSON keeps checkpoints inspectable with standard
// tools, which matters when diagnosing an interrupted ingestion run.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/storage"
)

// CheckpointStore persists checkpoints as one JSON file per document.
type CheckpointStore struct {
	dir    string
	logger *slog.Logger
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a checkpoint store rooted at dir, creating the
// directory if needed.
func NewCheckpointStore(dir string, logger *slog.Logger) (*CheckpointStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}
	return &CheckpointStore{
		dir:    dir,
		logger: logger.With("component", "file-checkpoint-store"),
	}, nil
}

func (s *CheckpointStore) path(docID string) string {
	return filepath.Join(s.dir, docID+".checkpoint.json")
}

// SaveCheckpoint writes the checkpoint to a temp file in the same directory
// and renames it into place. Rename is atomic on POSIX filesystems, so a
// crash mid-save leaves the previous checkpoint intact.
func (s *CheckpointStore) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateCheckpoint(checkpoint); err != nil {
		return err
	}

	stamped := *checkpoint
	stamped.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(&stamped, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	docID := core.DocumentID(checkpoint.DocPath)
	tmp, err := os.CreateTemp(s.dir, docID+".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path(docID)); err != nil {
		return fmt.Errorf("installing checkpoint: %w", err)
	}

	s.logger.Debug("checkpoint saved",
		"doc_id", docID,
		"last_page", checkpoint.LastPage)
	return nil
}

// LoadCheckpoint reads the checkpoint for docID. Returns (nil, nil) when no
// checkpoint file exists.
func (s *CheckpointStore) LoadCheckpoint(ctx context.Context, docID string) (*core.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(docID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var checkpoint core.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return &checkpoint, nil
}

// ClearCheckpoint removes the checkpoint file for docID if present.
func (s *CheckpointStore) ClearCheckpoint(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(docID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}
