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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/narrator/ai"
	"github.com/poiesic/narrator/chunk"
	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/dispatch"
	"github.com/poiesic/narrator/index"
	"github.com/poiesic/narrator/retry"
	"github.com/poiesic/narrator/storage"
)

const (
	// DefaultEmbedBatchSize is the number of chunk texts sent to the
	// embedder per request.
	DefaultEmbedBatchSize = 32

	// DefaultMaxRetries is the number of attempts per embedding batch.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the base delay for embedding retry backoff.
	DefaultRetryDelay = 1 * time.Second
)

// Config holds build-stage tuning parameters.
type Config struct {
	EmbedBatchSize int
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		EmbedBatchSize: DefaultEmbedBatchSize,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
	}
}

// Outcome reports what a build produced.
type Outcome struct {
	DocID   string
	Pages   int
	Chunks  int
	Batches int
	Elapsed time.Duration
}

// Builder turns stored page records into an embedded, searchable index.
type Builder struct {
	store    storage.PageRecordStore
	chunker  *chunk.Chunker
	embedder ai.Embedder
	idx      index.Index
	pool     *dispatch.Pool
	config   *Config
	logger   *slog.Logger
}

// NewBuilder creates a builder over the given stores and index.
// A nil config uses defaults, a nil logger uses slog.Default().
func NewBuilder(store storage.PageRecordStore, chunker *chunk.Chunker, embedder ai.Embedder, idx index.Index, pool *dispatch.Pool, config *Config, logger *slog.Logger) *Builder {
	if chunker == nil {
		chunker = chunk.NewChunker()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.EmbedBatchSize <= 0 {
		config.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		store:    store,
		chunker:  chunker,
		embedder: embedder,
		idx:      idx,
		pool:     pool,
		config:   config,
		logger:   logger.With("component", "builder"),
	}
}

// BuildDocument chunks a document's stored page records, embeds the chunks
// in batches, and upserts the results into the index. Batches are embedded
// in parallel on the worker pool, with retry and exponential backoff per
// batch.
func (b *Builder) BuildDocument(ctx context.Context, docID string) (*Outcome, error) {
	start := time.Now()

	pages, err := b.store.GetPageRecords(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load page records: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, docID)
	}

	var chunks []core.Chunk
	for c := range b.chunker.Chunks(pages) {
		chunks = append(chunks, c)
	}
	b.logger.Info("document chunked", "docID", docID, "pages", len(pages), "chunks", len(chunks))

	batches := batchChunks(chunks, b.config.EmbedBatchSize)
	results, err := dispatch.Map(ctx, b.pool, batches, b.embedBatch)
	if err != nil {
		return nil, err
	}

	entries := make([]core.IndexEntry, 0, len(chunks))
	for _, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("%w: batch %d: %w", ErrEmbeddingFailed, result.Index, result.Err)
		}
		entries = append(entries, result.Value...)
	}

	if err := b.idx.Upsert(entries...); err != nil {
		return nil, fmt.Errorf("failed to index embedded chunks: %w", err)
	}

	outcome := &Outcome{
		DocID:   docID,
		Pages:   len(pages),
		Chunks:  len(chunks),
		Batches: len(batches),
		Elapsed: time.Since(start),
	}
	b.logger.Info("document indexed",
		"docID", docID,
		"chunks", outcome.Chunks,
		"batches", outcome.Batches,
		"elapsed", outcome.Elapsed)
	return outcome, nil
}

// embedBatch embeds one batch of chunks, retrying transient failures with
// exponential backoff.
func (b *Builder) embedBatch(ctx context.Context, batch []core.Chunk) ([]core.IndexEntry, error) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}

	var vectors [][]float32
	err := retry.DoBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = b.embedder.EmbedTexts(ctx, texts)
		if embedErr != nil {
			return embedErr
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: got %d, want %d", ErrVectorCountMismatch, len(vectors), len(texts))
		}
		return nil
	}, b.config.MaxRetries, b.config.RetryDelay)
	if err != nil {
		return nil, err
	}

	entries := make([]core.IndexEntry, len(batch))
	for i := range batch {
		entries[i] = core.IndexEntry{
			ChunkId: batch[i].Id,
			Vector:  vectors[i],
			Chunk:   batch[i],
		}
	}
	return entries, nil
}

// batchChunks splits chunks into batches of at most size elements.
func batchChunks(chunks []core.Chunk, size int) [][]core.Chunk {
	batches := make([][]core.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		batches = append(batches, chunks[start:end])
	}
	return batches
}
