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

// Package narrator turns scanned and digital PDF manuals into a
// searchable vector index. The Library type wires the storage, OCR,
// ingestion, build, and search stages together; the subpackages remain
// usable on their own.
package narrator

import (
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/narrator/ai"
	"github.com/poiesic/narrator/ai/openai"
	"github.com/poiesic/narrator/chunk"
	"github.com/poiesic/narrator/dispatch"
	"github.com/poiesic/narrator/extract"
	"github.com/poiesic/narrator/index"
	"github.com/poiesic/narrator/ingest"
	"github.com/poiesic/narrator/ocr"
	"github.com/poiesic/narrator/pipeline"
	"github.com/poiesic/narrator/search"
	"github.com/poiesic/narrator/storage"
	"github.com/poiesic/narrator/storage/badger"
	"github.com/poiesic/narrator/storage/file"
)

// Library is the top-level handle over a document corpus: its page
// record store, vector index, and the shared worker pool.
type Library struct {
	store     storage.Store
	source    extract.Source
	ocrProc   *ocr.Processor
	embedder  ai.Embedder
	idx       index.Index
	pool      *dispatch.Pool
	chunker   *chunk.Chunker
	indexPath string
	progress  io.Writer
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig      *ai.Config
	ocrConfig     ocr.Config
	embedder      ai.Embedder
	workers       int
	indexPath     string
	checkpointDir string
	chunker       *chunk.Chunker
	languages     []string
	renderDPI     int
	progress      io.Writer
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.aiConfig = config
	}
}

// WithOCRConfig sets the OCR configuration. Mode ModeOff disables the
// OCR stage entirely.
func WithOCRConfig(config ocr.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.ocrConfig = config
	}
}

// WithEmbedder overrides the embedder, bypassing the AI configuration.
// Used by tests to avoid a live embedding service.
func WithEmbedder(embedder ai.Embedder) LibraryOption {
	return func(o *libraryOptions) {
		o.embedder = embedder
	}
}

// WithOCRLanguages sets the tesseract language codes. Default is "eng".
func WithOCRLanguages(languages ...string) LibraryOption {
	return func(o *libraryOptions) {
		o.languages = languages
	}
}

// WithRenderDPI sets the page rasterization resolution for OCR.
// Zero selects the default of 300.
func WithRenderDPI(dpi int) LibraryOption {
	return func(o *libraryOptions) {
		o.renderDPI = dpi
	}
}

// WithWorkers sets the worker pool size. Zero picks a size from the
// CPU count.
func WithWorkers(workers int) LibraryOption {
	return func(o *libraryOptions) {
		o.workers = workers
	}
}

// WithIndexPath sets where the vector index is persisted. An existing
// index at this path is loaded on open.
func WithIndexPath(path string) LibraryOption {
	return func(o *libraryOptions) {
		o.indexPath = path
	}
}

// WithCheckpointDir keeps ingestion checkpoints as JSON files in dir
// instead of inside the badger store. Useful when the checkpoint should
// survive deletion of the record database.
func WithCheckpointDir(dir string) LibraryOption {
	return func(o *libraryOptions) {
		o.checkpointDir = dir
	}
}

// WithChunkWindow overrides the chunking window. Zero values keep the
// defaults.
func WithChunkWindow(minSize, maxSize, overlap int) LibraryOption {
	return func(o *libraryOptions) {
		c := chunk.NewChunker()
		if minSize > 0 {
			c.MinSize = minSize
		}
		if maxSize > 0 {
			c.MaxSize = maxSize
		}
		if overlap > 0 {
			c.Overlap = overlap
		}
		o.chunker = c
	}
}

// WithProgress sets the writer for ingestion progress output.
// Default is os.Stderr.
func WithProgress(w io.Writer) LibraryOption {
	return func(o *libraryOptions) {
		o.progress = w
	}
}

// NewLibrary opens a library over the badger store at filePath.
func NewLibrary(filePath string, opts ...LibraryOption) (*Library, error) {
	// Apply options
	options := &libraryOptions{
		aiConfig:  ai.DefaultConfig(),
		ocrConfig: ocr.DefaultConfig(),
		progress:  os.Stderr,
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := slog.Default()

	store, err := badger.NewStore(filePath)
	if err != nil {
		return nil, err
	}
	if options.checkpointDir != "" {
		checkpoints, err := file.NewCheckpointStore(options.checkpointDir, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		store = storage.NewSplitStore(store, checkpoints)
	}

	pool, err := dispatch.NewPool(options.workers)
	if err != nil {
		store.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			pool.Release()
			store.Close()
			return nil, err
		}
	}

	var ocrProc *ocr.Processor
	if options.ocrConfig.Mode != ocr.ModeOff {
		engine := ocr.NewTesseractEngine(options.languages...)
		renderer := ocr.NewPopplerRenderer(options.renderDPI)
		ocrProc = ocr.NewProcessor(options.ocrConfig, engine, renderer, logger)
	}

	idx := index.NewFlat()
	if options.indexPath != "" {
		if _, statErr := os.Stat(options.indexPath); statErr == nil {
			idx, err = index.LoadFlat(options.indexPath)
			if err != nil {
				pool.Release()
				store.Close()
				return nil, err
			}
		}
	}

	chunker := options.chunker
	if chunker == nil {
		chunker = chunk.NewChunker()
	}

	return &Library{
		store:     store,
		source:    extract.NewPDFSource(logger),
		ocrProc:   ocrProc,
		embedder:  embedder,
		idx:       idx,
		pool:      pool,
		chunker:   chunker,
		indexPath: options.indexPath,
		progress:  options.progress,
		logger:    logger,
	}, nil
}

// Close releases the worker pool and closes the store. The index is not
// saved implicitly; call SaveIndex first if persistence is wanted.
func (l *Library) Close() error {
	l.pool.Release()
	if err := l.store.Close(); err != nil {
		l.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

// Store returns the page record and checkpoint store.
func (l *Library) Store() storage.Store {
	return l.store
}

// Index returns the vector index.
func (l *Library) Index() index.Index {
	return l.idx
}

// SaveIndex persists the vector index to the configured index path.
func (l *Library) SaveIndex() error {
	if l.indexPath == "" {
		return ErrNoIndexPath
	}
	return l.idx.Save(l.indexPath)
}

// NewIngestController creates an ingestion controller over the library's
// source, OCR stage, and store. A nil config uses defaults.
func (l *Library) NewIngestController(config *ingest.Config) *ingest.Controller {
	var ocrStage ingest.OCR
	if l.ocrProc != nil {
		ocrStage = l.ocrProc
	}
	return ingest.NewController(l.source, ocrStage, l.store, l.pool, config, l.progress, l.logger)
}

// NewBuilder creates a build-stage runner that chunks, embeds, and
// indexes stored page records. A nil config uses defaults.
func (l *Library) NewBuilder(config *pipeline.Config) *pipeline.Builder {
	return pipeline.NewBuilder(l.store, l.chunker, l.embedder, l.idx, l.pool, config, l.logger)
}

// NewSearcher creates a hybrid searcher over the library's index.
func (l *Library) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(l.idx, l.embedder, opts...)
}
