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
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/poiesic/narrator/core"
)

// Stats summarizes the contents of an index.
type Stats struct {
	Entries   int `json:"entries"`
	Dimension int `json:"dimension"`
	Documents int `json:"documents"`
}

// Index is a searchable collection of embedded chunks.
//
// All methods are safe for concurrent use.
type Index interface {
	// Upsert adds entries to the index, replacing any existing entry
	// with the same chunk ID. Vectors are normalized on insertion.
	Upsert(entries ...core.IndexEntry) error

	// Rebuild atomically replaces the index contents with the given entries.
	Rebuild(entries []core.IndexEntry) error

	// Query returns up to maxHits entries ranked by cosine similarity to
	// the query vector. Hits below minScore are dropped.
	Query(ctx context.Context, vector []float32, maxHits int, minScore float32) ([]*core.SearchHit, error)

	// Get looks up an entry by chunk ID.
	Get(id core.ID) (*core.IndexEntry, bool)

	// Entries returns a snapshot of all entries in insertion order.
	Entries() []core.IndexEntry

	// Len returns the number of indexed entries.
	Len() int

	// Dimension returns the vector dimension, or 0 for an empty index.
	Dimension() int

	// Stats summarizes the index contents.
	Stats() Stats

	// Save persists the index to the given path.
	Save(path string) error
}

// Flat is a brute-force in-memory vector index. Every query scans all
// entries, which is exact and fast enough for single-document corpora.
type Flat struct {
	mu        sync.RWMutex
	entries   []core.IndexEntry
	positions map[core.ID]int
	dim       int
	logger    *slog.Logger
}

var _ Index = (*Flat)(nil)

// newFlat is an internal constructor that returns the concrete type.
func newFlat() *Flat {
	return &Flat{
		positions: make(map[core.ID]int),
		logger:    slog.Default().With("component", "index"),
	}
}

// NewFlat creates an empty flat index.
//
// Returns the Index interface to enforce abstraction.
func NewFlat() Index {
	return newFlat()
}

// Upsert adds entries to the index, replacing any existing entry with the
// same chunk ID. The first inserted vector fixes the index dimension.
func (f *Flat) Upsert(entries ...core.IndexEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, entry := range entries {
		if err := f.insertLocked(entry); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild atomically replaces the index contents with the given entries.
func (f *Flat) Rebuild(entries []core.IndexEntry) error {
	fresh := newFlat()
	if err := fresh.Upsert(entries...); err != nil {
		return err
	}

	f.mu.Lock()
	f.entries = fresh.entries
	f.positions = fresh.positions
	f.dim = fresh.dim
	f.mu.Unlock()

	f.logger.Info("index rebuilt", "entries", len(entries), "dimension", fresh.dim)
	return nil
}

func (f *Flat) insertLocked(entry core.IndexEntry) error {
	if len(entry.Vector) == 0 {
		return ErrEmptyVector
	}
	if f.dim == 0 {
		f.dim = len(entry.Vector)
	} else if len(entry.Vector) != f.dim {
		return ErrDimensionMismatch
	}

	entry.Vector = NormalizeVector(entry.Vector)
	if pos, ok := f.positions[entry.ChunkId]; ok {
		f.entries[pos] = entry
		return nil
	}
	f.positions[entry.ChunkId] = len(f.entries)
	f.entries = append(f.entries, entry)
	return nil
}

// Query returns up to maxHits entries ranked by cosine similarity to the
// query vector. Hits scoring below minScore are dropped.
func (f *Flat) Query(ctx context.Context, vector []float32, maxHits int, minScore float32) ([]*core.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.entries) == 0 {
		return []*core.SearchHit{}, nil
	}
	if len(vector) != f.dim {
		return nil, ErrDimensionMismatch
	}

	query := NormalizeVector(vector)
	hits := make([]*core.SearchHit, 0, len(f.entries))
	for i := range f.entries {
		entry := f.entries[i]
		score := dotProduct(query, entry.Vector)
		if score < minScore {
			continue
		}
		hits = append(hits, &core.SearchHit{
			Entry:       &entry,
			Score:       score,
			VectorScore: score,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if maxHits > 0 && len(hits) > maxHits {
		hits = hits[:maxHits]
	}
	return hits, nil
}

// Get looks up an entry by chunk ID.
func (f *Flat) Get(id core.ID) (*core.IndexEntry, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	pos, ok := f.positions[id]
	if !ok {
		return nil, false
	}
	entry := f.entries[pos]
	return &entry, true
}

// Entries returns a snapshot of all entries in insertion order.
func (f *Flat) Entries() []core.IndexEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snapshot := make([]core.IndexEntry, len(f.entries))
	copy(snapshot, f.entries)
	return snapshot
}

// Len returns the number of indexed entries.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Dimension returns the vector dimension, or 0 for an empty index.
func (f *Flat) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}

// Stats summarizes the index contents.
func (f *Flat) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	files := make(map[string]bool)
	for i := range f.entries {
		files[f.entries[i].Chunk.File] = true
	}
	return Stats{
		Entries:   len(f.entries),
		Dimension: f.dim,
		Documents: len(files),
	}
}
