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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/narrator"
	"github.com/poiesic/narrator/ai"
	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/index"
	"github.com/poiesic/narrator/ingest"
	"github.com/poiesic/narrator/ocr"
	"github.com/poiesic/narrator/pipeline"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "narrator",
		Usage: "Resilient PDF ingestion and semantic search over technical manuals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Extract page text from PDF files into the page record store",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "ocr-mode",
						Usage: "OCR mode (off, auto, force)",
						Value: "auto",
					},
					&cli.IntFlag{
						Name:  "ocr-threshold",
						Usage: "Extracted character count below which auto mode applies OCR",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "ocr-retries",
						Usage: "Maximum OCR attempts per page",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "ocr-retry-delay",
						Usage: "Delay between OCR attempts",
						Value: 1 * time.Second,
					},
					&cli.StringFlag{
						Name:  "checkpoint-dir",
						Usage: "Keep checkpoints as JSON files in this directory instead of the database",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of pages to process per checkpointed batch",
						Value: ingest.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size (0 selects from CPU count)",
					},
					&cli.IntFlag{
						Name:  "dpi",
						Usage: "Page rasterization resolution for OCR",
						Value: 300,
					},
					&cli.StringSliceFlag{
						Name:  "language",
						Usage: "Tesseract language code (repeatable)",
					},
					&cli.IntFlag{
						Name:  "max-parallel",
						Usage: "Maximum number of files ingested concurrently",
						Value: 1,
					},
					&cli.Uint64Flag{
						Name:  "memory-limit",
						Usage: "Heap ceiling in bytes; when breached the run stops at the next checkpoint and resumes on the next invocation (0 disables)",
					},
				},
			},
			{
				Name:      "index",
				Usage:     "Chunk, embed, and index ingested documents",
				ArgsUsage: "FILE [FILE...]",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Path to the vector index file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks embedded per request",
						Value: pipeline.DefaultEmbedBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding batches",
						Value: pipeline.DefaultMaxRetries,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "chunk-min",
						Usage: "Minimum chunk size in characters (0 keeps default)",
					},
					&cli.IntFlag{
						Name:  "chunk-max",
						Usage: "Maximum chunk size in characters (0 keeps default)",
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Chunk overlap in characters (0 keeps default)",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Search the vector index",
				ArgsUsage: "QUERY...",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Path to the vector index file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print vector index statistics",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Path to the vector index file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit statistics as JSON",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one PDF file is required")
	}

	mode, err := ocr.ParseMode(c.String("ocr-mode"))
	if err != nil {
		return err
	}
	ocrConfig := ocr.DefaultConfig()
	ocrConfig.Mode = mode
	ocrConfig.LowTextThreshold = c.Int("ocr-threshold")
	ocrConfig.MaxRetries = c.Int("ocr-retries")
	ocrConfig.RetryDelay = c.Duration("ocr-retry-delay")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []narrator.LibraryOption{
		narrator.WithOCRConfig(ocrConfig),
		narrator.WithWorkers(c.Int("workers")),
		narrator.WithRenderDPI(c.Int("dpi")),
		narrator.WithOCRLanguages(c.StringSlice("language")...),
	}
	if dir := c.String("checkpoint-dir"); dir != "" {
		opts = append(opts, narrator.WithCheckpointDir(dir))
	}
	lib, err := narrator.NewLibrary(c.String("db"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	ingestConfig := ingest.DefaultConfig()
	ingestConfig.BatchSize = c.Int("batch-size")
	ingestConfig.MemoryLimit = c.Uint64("memory-limit")
	if ingestConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Int("max-parallel"))
	for _, path := range c.Args().Slice() {
		g.Go(func() error {
			controller := lib.NewIngestController(ingestConfig)
			outcome, err := controller.Run(gctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(os.Stderr, "%s: %d/%d pages processed (resumed=%v) in %s\n",
				path, outcome.Processed, outcome.Pages, outcome.Resumed, outcome.Elapsed.Round(time.Millisecond))
			if outcome.StoppedEarly {
				fmt.Fprintf(os.Stderr, "%s: stopped at memory ceiling, rerun to resume\n", path)
			}
			return nil
		})
	}
	return g.Wait()
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one ingested PDF file is required")
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithBatchSize(c.Int("batch-size")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := narrator.NewLibrary(c.String("db"),
		narrator.WithAIConfig(aiConfig),
		narrator.WithOCRConfig(ocr.Config{Mode: ocr.ModeOff}),
		narrator.WithIndexPath(c.String("index")),
		narrator.WithChunkWindow(c.Int("chunk-min"), c.Int("chunk-max"), c.Int("chunk-overlap")),
	)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	buildConfig := &pipeline.Config{
		EmbedBatchSize: c.Int("batch-size"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if buildConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	builder := lib.NewBuilder(buildConfig)
	for _, path := range c.Args().Slice() {
		docID := core.DocumentID(path)
		outcome, err := builder.BuildDocument(ctx, docID)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "%s: %d chunks from %d pages in %s\n",
			path, outcome.Chunks, outcome.Pages, outcome.Elapsed.Round(time.Millisecond))
	}

	if err := lib.SaveIndex(); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	lib, err := narrator.NewLibrary(c.String("db"),
		narrator.WithAIConfig(aiConfig),
		narrator.WithOCRConfig(ocr.Config{Mode: ocr.ModeOff}),
		narrator.WithIndexPath(c.String("index")),
	)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	hits, err := searcher.FindSimilar(context.Background(), query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(hits))
	for i, hit := range hits {
		chunk := hit.Entry.Chunk
		fmt.Printf("%d: %s p.%d [%0.3f]\n", i+1, chunk.File, chunk.Page+1, hit.Score)
		fmt.Printf("   %s\n", excerpt(chunk.Text, 160))
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	idx, err := index.LoadFlat(c.String("index"))
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	stats := idx.Stats()
	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}
	fmt.Printf("Entries:   %d\n", stats.Entries)
	fmt.Printf("Dimension: %d\n", stats.Dimension)
	fmt.Printf("Documents: %d\n", stats.Documents)
	return nil
}

// excerpt trims text to at most n runes for display.
func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
