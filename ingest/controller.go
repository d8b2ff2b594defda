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

// Package ingest drives resilient page-by-page document ingestion.
//
// The controller walks a document in batches, fanning each batch's pages
// out across a worker pool for extraction and OCR, then durably emitting
// the page records before advancing the checkpoint. A killed run resumes
// from the last checkpointed page; a document that changed on disk since
// the checkpoint was written is restarted from scratch.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/dispatch"
	"github.com/poiesic/narrator/extract"
	"github.com/poiesic/narrator/normalize"
	"github.com/poiesic/narrator/storage"
)

const (
	// DefaultBatchSize is the number of pages processed between checkpoints.
	DefaultBatchSize = 8

	// DefaultReportInterval is how often progress is reported (pages).
	DefaultReportInterval = 10
)

// OCR is the slice of the OCR processor the controller needs.
// A nil OCR disables the recovery stage entirely.
type OCR interface {
	ShouldApply(record *core.PageText) bool
	Apply(ctx context.Context, pdfPath string, record *core.PageText) (*core.PageText, error)
}

// Config holds ingestion settings.
type Config struct {
	// BatchSize is the number of pages per checkpointed batch.
	BatchSize int

	// ReportInterval is how often to report progress (pages).
	ReportInterval int

	// MemoryLimit is a soft heap ceiling in bytes. When the heap is still
	// above the ceiling after a batch has been checkpointed, the run stops
	// early with Outcome.StoppedEarly set and no error; the checkpoint is
	// kept so a later run resumes where this one left off. Zero disables
	// the check.
	MemoryLimit uint64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultReportInterval,
	}
}

// Outcome summarizes one ingestion run.
type Outcome struct {
	DocID        string
	Path         string
	Pages        int
	Processed    int // pages processed by this run
	StartPage    int
	Resumed      bool
	StoppedEarly bool
	Elapsed      time.Duration
}

// Controller orchestrates ingestion of one document at a time.
type Controller struct {
	source   extract.Source
	ocr      OCR
	store    storage.Store
	pool     *dispatch.Pool
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewController creates an ingestion controller.
// progress: where to write progress output (typically os.Stderr)
func NewController(source extract.Source, ocrProc OCR, store storage.Store, pool *dispatch.Pool, config *Config, progress io.Writer, logger *slog.Logger) *Controller {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = DefaultReportInterval
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source:   source,
		ocr:      ocrProc,
		store:    store,
		pool:     pool,
		config:   config,
		progress: progress,
		logger:   logger.With("component", "ingest-controller"),
	}
}

// Run ingests the document at path, resuming from an existing checkpoint
// when one matches the file's current fingerprint. Page records are durable
// before the checkpoint that covers them, so an interrupted run never skips
// unprocessed pages on resume.
func (c *Controller) Run(ctx context.Context, path string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	doc, err := c.source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc.Pages == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, path)
	}

	fingerprint, err := core.FingerprintFile(path)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting %s: %w", path, err)
	}
	docID := core.DocumentID(path)

	outcome := &Outcome{
		DocID: docID,
		Path:  path,
		Pages: doc.Pages,
	}

	startPage, resumed, err := c.resolveStart(ctx, docID, fingerprint, doc.Pages)
	if err != nil {
		return nil, err
	}
	outcome.StartPage = startPage
	outcome.Resumed = resumed

	c.logger.Info("ingestion started",
		"file", path,
		"doc_id", docID,
		"pages", doc.Pages,
		"start_page", startPage,
		"resumed", resumed,
		"batch_size", c.config.BatchSize,
		"workers", c.pool.Size())

	tracker := NewProgressTracker(c.progress, doc.Pages, c.config.ReportInterval)
	tracker.Start(startPage)

	for batchStart := startPage; batchStart < doc.Pages; batchStart += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			outcome.StoppedEarly = true
			outcome.Elapsed = tracker.Elapsed()
			return outcome, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		batchEnd := min(batchStart+c.config.BatchSize, doc.Pages)
		records, err := c.processBatch(ctx, path, batchStart, batchEnd)
		if err != nil {
			outcome.StoppedEarly = true
			outcome.Elapsed = tracker.Elapsed()
			if ctx.Err() != nil {
				return outcome, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
			}
			return outcome, err
		}

		// Records must be durable before the checkpoint that covers them.
		if err := c.store.AppendPageRecords(ctx, docID, records...); err != nil {
			outcome.StoppedEarly = true
			outcome.Elapsed = tracker.Elapsed()
			return outcome, fmt.Errorf("storing pages %d-%d: %w", batchStart, batchEnd-1, err)
		}
		if err := c.store.SaveCheckpoint(ctx, &core.Checkpoint{
			DocPath:     path,
			Fingerprint: fingerprint,
			LastPage:    batchEnd - 1,
			BatchSize:   c.config.BatchSize,
		}); err != nil {
			outcome.StoppedEarly = true
			outcome.Elapsed = tracker.Elapsed()
			return outcome, fmt.Errorf("saving checkpoint at page %d: %w", batchEnd-1, err)
		}

		outcome.Processed += len(records)
		tracker.Update(batchEnd)

		if batchEnd < doc.Pages && c.memoryCeilingBreached() {
			outcome.StoppedEarly = true
			break
		}
	}

	outcome.Elapsed = tracker.Elapsed()

	if outcome.StoppedEarly {
		// The checkpoint just written stays in place; the next run picks
		// up from there.
		c.logger.Warn("ingestion stopped early under memory pressure",
			"file", path,
			"doc_id", docID,
			"pages_processed", outcome.Processed,
			"elapsed", outcome.Elapsed.Round(time.Millisecond))
		return outcome, nil
	}

	tracker.Finish()

	if err := c.store.ClearCheckpoint(ctx, docID); err != nil {
		return outcome, fmt.Errorf("clearing checkpoint: %w", err)
	}

	c.logger.Info("ingestion complete",
		"file", path,
		"doc_id", docID,
		"pages_processed", outcome.Processed,
		"elapsed", outcome.Elapsed.Round(time.Millisecond))
	return outcome, nil
}

// resolveStart decides where the run begins. A checkpoint whose fingerprint
// no longer matches the file is discarded along with its page records.
func (c *Controller) resolveStart(ctx context.Context, docID, fingerprint string, pages int) (int, bool, error) {
	checkpoint, err := c.store.LoadCheckpoint(ctx, docID)
	if err != nil {
		return 0, false, fmt.Errorf("loading checkpoint: %w", err)
	}
	if checkpoint == nil {
		return 0, false, nil
	}

	if checkpoint.Fingerprint != fingerprint {
		c.logger.Warn("document changed since checkpoint, restarting",
			"doc_id", docID,
			"checkpoint_page", checkpoint.LastPage,
			"cause", storage.ErrCheckpointStale)
		if err := c.store.ClearCheckpoint(ctx, docID); err != nil {
			return 0, false, err
		}
		if err := c.store.DeletePageRecords(ctx, docID); err != nil {
			return 0, false, err
		}
		return 0, false, nil
	}

	start := checkpoint.LastPage + 1
	if start > pages {
		start = pages
	}
	return start, true, nil
}

// processBatch extracts pages [start, end) in parallel and returns their
// records in page order. A page whose pipeline fails (including a contained
// worker panic) degrades to an empty record rather than failing the batch;
// only cancellation aborts the run.
func (c *Controller) processBatch(ctx context.Context, path string, start, end int) ([]*core.PageText, error) {
	pages := make([]int, 0, end-start)
	for p := start; p < end; p++ {
		pages = append(pages, p)
	}

	results, err := dispatch.Map(ctx, c.pool, pages, func(ctx context.Context, page int) (*core.PageText, error) {
		return c.processPage(ctx, path, page)
	})
	if err != nil {
		return nil, err
	}

	records := make([]*core.PageText, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("page %d: %w", pages[r.Index], r.Err)
			}
			c.logger.Error("page failed, recording empty text",
				"file", path,
				"doc_id", core.DocumentID(path),
				"page", pages[r.Index],
				"error", r.Err)
			records = append(records, &core.PageText{
				File:   path,
				Page:   pages[r.Index],
				Method: core.MethodNone,
			})
			continue
		}
		records = append(records, r.Value)
	}
	return records, nil
}

// processPage runs one page through extraction, optional OCR, and
// normalization.
func (c *Controller) processPage(ctx context.Context, path string, page int) (*core.PageText, error) {
	record, err := c.source.ExtractPage(ctx, path, page)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	if c.ocr != nil && c.ocr.ShouldApply(record) {
		record, err = c.ocr.Apply(ctx, path, record)
		if err != nil {
			return nil, fmt.Errorf("ocr: %w", err)
		}
	}

	record.Text = normalize.Normalize(record.Text)
	record.Chars = len(record.Text)
	return record, nil
}

// memoryCeilingBreached reports whether the heap sits above the soft
// ceiling even after a collection. Batches of rendered page images can
// spike the heap well beyond what steady-state ingestion needs; when a GC
// cannot bring it back under the ceiling, the run should wind down at the
// checkpoint it just wrote.
func (c *Controller) memoryCeilingBreached() bool {
	if c.config.MemoryLimit == 0 {
		return false
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc <= c.config.MemoryLimit {
		return false
	}
	runtime.GC()
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc <= c.config.MemoryLimit {
		return false
	}
	c.logger.Warn("heap above soft limit after GC",
		"heap_alloc", ms.HeapAlloc,
		"limit", c.config.MemoryLimit)
	return true
}
