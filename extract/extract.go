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

// Package extract pulls per-page text out of source documents.
//
// The primary path decodes text operators straight from the PDF content
// streams. When it comes back empty (outline fonts, unusual encodings),
// a secondary pass trims the page into a standalone PDF and runs it
// through docconv's pdftotext conversion. Pages that defeat both paths
// are left to the OCR stage.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/poiesic/narrator/core"
)

// Source opens documents and extracts page text. Implementations must be
// safe for concurrent use; page extraction is fanned out across workers.
type Source interface {
	// Open inspects a document and reports its page count and whether it
	// is encrypted. A password-protected file is not an error: it is
	// returned with Encrypted set and a best-effort page count, and its
	// pages degrade to the fallback extraction path.
	Open(ctx context.Context, path string) (*core.Document, error)

	// ExtractPage extracts text from one page (0-based). An empty Text
	// with MethodNone is a legal degraded result, not an error.
	ExtractPage(ctx context.Context, path string, page int) (*core.PageText, error)

	// PageFile writes the given page (0-based) as a standalone
	// single-page PDF under destDir and returns its path. Used by the
	// OCR stage for rendering.
	PageFile(ctx context.Context, path string, page int, destDir string) (string, error)
}

// PDFSource implements Source for PDF documents using pdfcpu with a
// docconv fallback.
type PDFSource struct {
	conf   *model.Configuration
	logger *slog.Logger

	// paths Open found to be password protected; their pages skip the
	// content-stream path, which cannot decode encrypted streams.
	encrypted sync.Map
}

var _ Source = (*PDFSource)(nil)

// NewPDFSource creates a PDF source with relaxed validation, which keeps
// slightly malformed scans readable.
func NewPDFSource(logger *slog.Logger) *PDFSource {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFSource{
		conf:   conf,
		logger: logger.With("component", "pdf-source"),
	}
}

// Open reports page count and encryption status for the document at path.
// Password-protected files are flagged rather than rejected; their page
// count comes from a lexical scan since pdfcpu refuses to parse them.
func (s *PDFSource) Open(ctx context.Context, path string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count, err := api.PageCountFile(path)
	if err != nil {
		if !isEncryptionError(err) {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		s.encrypted.Store(path, true)
		count = scanPageCount(path)
		s.logger.Warn("document is password protected, degrading to fallback extraction",
			"file", path,
			"pages", count)
		return &core.Document{Path: path, Pages: count, Encrypted: true}, nil
	}

	return &core.Document{Path: path, Pages: count, Encrypted: false}, nil
}

// isEncryptionError reports whether a pdfcpu error means the file needs a
// password. pdfcpu's message for an unauthenticated encrypted file is
// "please provide the correct password", with no mention of encryption.
func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

// pageObjPattern matches page object dictionaries. The \b keeps the page
// tree root (/Type /Pages) out of the count.
var pageObjPattern = regexp.MustCompile(`/Type\s*/Page\b`)

// scanPageCount counts page objects by scanning the raw file. PDF object
// structure stays in the clear even in encrypted files (only strings and
// streams are enciphered), so this works where parsing cannot. Files that
// pack their page dictionaries into object streams defeat it and report
// zero pages.
func scanPageCount(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return len(pageObjPattern.FindAll(data, -1))
}

// ExtractPage extracts text from one page, trying the content-stream path
// first and docconv second.
func (s *PDFSource) ExtractPage(ctx context.Context, path string, page int) (*core.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 0 {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}

	record := &core.PageText{
		File:   path,
		Page:   page,
		Method: core.MethodNone,
	}

	var text string
	if _, enc := s.encrypted.Load(path); enc {
		s.logger.Debug("skipping content-stream extraction",
			"file", path,
			"page", page,
			"cause", ErrEncrypted)
	} else {
		var err error
		text, err = s.extractPrimary(path, page)
		if err != nil {
			s.logger.Debug("primary extraction failed",
				"file", path,
				"page", page,
				"error", err)
		}
		if strings.TrimSpace(text) != "" {
			record.Text = text
			record.Chars = len(text)
			record.Method = core.MethodPrimary
			return record, nil
		}
	}

	text, err := s.extractSecondary(ctx, path, page)
	if err != nil {
		s.logger.Debug("secondary extraction failed",
			"file", path,
			"page", page,
			"error", err)
	}
	if strings.TrimSpace(text) != "" {
		record.Text = text
		record.Chars = len(text)
		record.Method = core.MethodSecondary
	}
	return record, nil
}

// extractPrimary decodes text operators from the page's content streams.
func (s *PDFSource) extractPrimary(path string, page int) (string, error) {
	dir, err := os.MkdirTemp("", "narrator-content-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	// pdfcpu page selection is 1-based.
	pageSpec := []string{strconv.Itoa(page + 1)}
	if err := api.ExtractContentFile(path, dir, pageSpec, s.conf); err != nil {
		return "", fmt.Errorf("extracting content streams: %w", err)
	}

	// Only one page was selected, so every written file belongs to it.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return "", err
		}
		if text := DecodeText(data); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// extractSecondary trims the page into its own PDF and converts it with
// docconv, which shells out to pdftotext.
func (s *PDFSource) extractSecondary(ctx context.Context, path string, page int) (string, error) {
	dir, err := os.MkdirTemp("", "narrator-secondary-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	pagePath, err := s.PageFile(ctx, path, page, dir)
	if err != nil {
		return "", err
	}

	f, err := os.Open(pagePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	text, _, err := docconv.ConvertPDF(f)
	if err != nil {
		return "", fmt.Errorf("converting page: %w", err)
	}
	return text, nil
}

// PageFile writes page (0-based) of the document as a standalone PDF.
func (s *PDFSource) PageFile(ctx context.Context, path string, page int, destDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if page < 0 {
		return "", fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}

	dest := filepath.Join(destDir, fmt.Sprintf("%s-page-%05d.pdf", core.DocumentID(path), page))
	pageSpec := []string{strconv.Itoa(page + 1)}
	if err := api.TrimFile(path, dest, pageSpec, s.conf); err != nil {
		return "", fmt.Errorf("trimming page %d: %w", page, err)
	}
	return dest, nil
}
