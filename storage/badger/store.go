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

package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/storage"
)

// Store implements storage.Store for BadgerDB, holding both resume
// checkpoints and per-page extraction records.
type Store struct {
	backend *Backend
}

var _ storage.Store = (*Store)(nil)

// NewStore opens a BadgerDB-backed store at the given path.
func NewStore(path string) (storage.Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend}, nil
}

// newStore wraps an existing backend. Used by the in-memory constructor.
func newStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// SaveCheckpoint persists a checkpoint for a document.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateCheckpoint(checkpoint); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint.UpdatedAt = time.Now().UTC()
		key := makeCheckpointKey(core.DocumentID(checkpoint.DocPath))
		value := storage.MarshalCheckpoint(checkpoint)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint retrieves the checkpoint for a document.
// Returns nil, nil if no checkpoint exists.
func (s *Store) LoadCheckpoint(ctx context.Context, docID string) (*core.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var checkpoint *core.Checkpoint
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCheckpointKey(docID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			checkpoint, unmarshalErr = storage.UnmarshalCheckpoint(val)
			return unmarshalErr
		})
	}, false)

	return checkpoint, err
}

// ClearCheckpoint removes the checkpoint for a document.
// Clearing a checkpoint that does not exist is a no-op.
func (s *Store) ClearCheckpoint(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		err := tx.Delete(makeCheckpointKey(docID))
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return tx.Commit()
	}, true)
}

// AppendPageRecords stores extraction results for one or more pages.
// Existing records for the same (docID, page) are overwritten.
func (s *Store) AppendPageRecords(ctx context.Context, docID string, records ...*core.PageText) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, record := range records {
		if err := core.ValidatePageText(record); err != nil {
			return err
		}
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makePageRecordKey(docID, record.Page)
			if err := tx.Set(key, storage.MarshalPageText(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPageRecords retrieves all stored page records for a document,
// ordered by page number ascending.
func (s *Store) GetPageRecords(ctx context.Context, docID string) ([]*core.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []*core.PageText
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePageRecordPrefix(docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// BigEndian page suffix makes prefix iteration yield ascending pages.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalPageText(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountPageRecords reports how many page records exist for a document.
func (s *Store) CountPageRecords(ctx context.Context, docID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePageRecordPrefix(docID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeletePageRecords removes every page record for a document.
func (s *Store) DeletePageRecords(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePageRecordPrefix(docID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
