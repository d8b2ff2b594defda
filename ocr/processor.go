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

// Package ocr recovers text from scanned pages. Pages whose extracted text
// falls under a threshold are rendered to an image, recognized with
// Tesseract, and merged back with whatever extraction produced.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/retry"
)

// Mode controls when OCR runs.
type Mode string

const (
	// ModeOff never runs OCR.
	ModeOff Mode = "off"
	// ModeAuto runs OCR only on pages with too little extracted text.
	ModeAuto Mode = "auto"
	// ModeForce runs OCR on every page.
	ModeForce Mode = "force"
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeOff:
		return ModeOff, nil
	case ModeAuto:
		return ModeAuto, nil
	case ModeForce:
		return ModeForce, nil
	}
	return "", fmt.Errorf("unknown OCR mode %q", s)
}

// Config holds OCR processing settings.
type Config struct {
	Mode Mode

	// LowTextThreshold is the minimum extracted character count for a page
	// to skip OCR in auto mode.
	LowTextThreshold int

	// MaxRetries and RetryDelay govern per-page OCR attempts. Tesseract
	// failures are often transient (memory pressure, temp file races).
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the standard OCR settings.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeAuto,
		LowTextThreshold: 50,
		MaxRetries:       3,
		RetryDelay:       time.Second,
	}
}

// Processor applies OCR to page records according to its configured mode.
type Processor struct {
	cfg      Config
	engine   Engine
	renderer Renderer
	logger   *slog.Logger
}

// NewProcessor creates an OCR processor.
func NewProcessor(cfg Config, engine Engine, renderer Renderer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LowTextThreshold <= 0 {
		cfg.LowTextThreshold = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Processor{
		cfg:      cfg,
		engine:   engine,
		renderer: renderer,
		logger:   logger.With("component", "ocr-processor"),
	}
}

// ShouldApply reports whether the record's page needs OCR under the
// configured mode.
func (p *Processor) ShouldApply(record *core.PageText) bool {
	switch p.cfg.Mode {
	case ModeOff:
		return false
	case ModeForce:
		return true
	default:
		return len(strings.TrimSpace(record.Text)) < p.cfg.LowTextThreshold
	}
}

// Apply runs OCR on the record's page and merges the result into it.
// A page whose OCR fails after all retries keeps its extracted text; OCR is
// best-effort recovery, not a gate.
func (p *Processor) Apply(ctx context.Context, pdfPath string, record *core.PageText) (*core.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *Result
	err := retry.Do(ctx, func() error {
		var attemptErr error
		result, attemptErr = p.recognizePage(ctx, pdfPath, record.Page)
		return attemptErr
	}, p.cfg.MaxRetries, p.cfg.RetryDelay)

	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		p.logger.Warn("OCR failed, keeping extracted text",
			"file", pdfPath,
			"page", record.Page,
			"error", err)
		return record, nil
	}

	merged := *record
	text, method := MergeTexts(record.Text, result.Text)
	merged.Text = text
	merged.Chars = len(text)
	if method != "" {
		merged.Method = method
	}
	merged.Blocks = result.Blocks
	merged.OCRApplied = true
	merged.OCRConfidence = result.Confidence

	p.logger.Debug("OCR applied",
		"file", pdfPath,
		"page", record.Page,
		"blocks", len(result.Blocks),
		"confidence", result.Confidence,
		"method", merged.Method)
	return &merged, nil
}

// recognizePage renders the page and feeds the image to the engine.
func (p *Processor) recognizePage(ctx context.Context, pdfPath string, page int) (*Result, error) {
	dir, err := os.MkdirTemp("", "narrator-ocr-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	imagePath, err := p.renderer.RenderPage(ctx, pdfPath, page, dir)
	if err != nil {
		return nil, err
	}
	return p.engine.Recognize(ctx, imagePath)
}
