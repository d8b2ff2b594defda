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

package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/narrator/core"
)

// Persisted indexes are a file pair: the vector file at the given path
// holds the embedding matrix in MUS encoding, and a sibling .meta.json
// file holds the chunk metadata as readable JSON. The vector file records
// each chunk ID alongside its vector so the pair can be cross-checked on
// load.

// metaFile derives the metadata path for a vector file.
func metaFile(path string) string {
	return path + ".meta.json"
}

type indexMeta struct {
	Dimension int               `json:"dimension"`
	Entries   []core.IndexEntry `json:"entries"`
}

// Save persists the index to path and its sibling metadata file.
// Both files are written atomically via temp file and rename.
func (f *Flat) Save(path string) error {
	f.mu.RLock()
	entries := make([]core.IndexEntry, len(f.entries))
	copy(entries, f.entries)
	dim := f.dim
	f.mu.RUnlock()

	vectors := marshalVectors(dim, entries)
	if err := writeAtomic(path, vectors); err != nil {
		return fmt.Errorf("failed to write vector file: %w", err)
	}

	meta := indexMeta{Dimension: dim, Entries: entries}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index metadata: %w", err)
	}
	if err := writeAtomic(metaFile(path), data); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	f.logger.Info("index saved", "path", path, "entries", len(entries))
	return nil
}

// LoadFlat restores a flat index from a file pair written by Save.
//
// Returns the Index interface to enforce abstraction.
func LoadFlat(path string) (Index, error) {
	metaData, err := os.ReadFile(metaFile(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	var meta indexMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	vectorData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector file: %w", err)
	}
	if err := unmarshalVectors(vectorData, meta.Dimension, meta.Entries); err != nil {
		return nil, err
	}

	f := newFlat()
	if err := f.Upsert(meta.Entries...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	f.logger.Info("index loaded", "path", path, "entries", f.Len())
	return f, nil
}

// marshalVectors encodes the embedding matrix as
// dim, count, then per entry chunk ID followed by dim floats.
func marshalVectors(dim int, entries []core.IndexEntry) []byte {
	size := varint.PositiveInt.Size(dim) + varint.PositiveInt.Size(len(entries))
	for i := range entries {
		size += core.IDMUS.Size(entries[i].ChunkId)
		size += dim * raw.Float32.Size(0)
	}

	bs := make([]byte, size)
	n := varint.PositiveInt.Marshal(dim, bs)
	n += varint.PositiveInt.Marshal(len(entries), bs[n:])
	for i := range entries {
		n += core.IDMUS.Marshal(entries[i].ChunkId, bs[n:])
		for _, v := range entries[i].Vector {
			n += raw.Float32.Marshal(v, bs[n:])
		}
	}
	return bs
}

// unmarshalVectors decodes the embedding matrix into the entries slice,
// matching each vector to its metadata entry by chunk ID.
func unmarshalVectors(bs []byte, dim int, entries []core.IndexEntry) error {
	fileDim, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	count, n1, err := varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if fileDim != dim || count != len(entries) {
		return fmt.Errorf("%w: vector file disagrees with metadata", ErrCorruptIndex)
	}

	for i := range entries {
		id, n1, err := core.IDMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
		}
		if id != entries[i].ChunkId {
			return fmt.Errorf("%w: chunk ID mismatch at entry %d", ErrCorruptIndex, i)
		}
		vector := make([]float32, dim)
		for j := range vector {
			vector[j], n1, err = raw.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
			}
		}
		entries[i].Vector = vector
	}
	return nil
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
