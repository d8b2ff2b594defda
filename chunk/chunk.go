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

// Package chunk slices normalized page text into overlapping chunks sized
// for embedding. Break points prefer paragraph over sentence over clause
// over word boundaries, and never land inside a part number token.
package chunk

import (
	"fmt"
	"iter"
	"strings"

	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/normalize"
)

const (
	// DefaultMinSize is the minimum target chunk size in characters.
	DefaultMinSize = 800
	// DefaultMaxSize is the maximum chunk size in characters.
	DefaultMaxSize = 1200
	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 120
)

// Chunker creates overlapping chunks from text.
type Chunker struct {
	MinSize int
	MaxSize int
	Overlap int
}

// NewChunker returns a chunker with the default 800-1200 character window
// and 120 character overlap.
func NewChunker() *Chunker {
	return &Chunker{
		MinSize: DefaultMinSize,
		MaxSize: DefaultMaxSize,
		Overlap: DefaultOverlap,
	}
}

// ChunkText splits one page's text into chunks. Chunk IDs are derived from
// (file, page, offset), so re-chunking unchanged text yields identical IDs.
func (c *Chunker) ChunkText(text, file string, page int, metadata map[string]string) []core.Chunk {
	if text == "" {
		return nil
	}

	var chunks []core.Chunk
	start := 0

	for start < len(text) {
		end := min(start+c.MaxSize, len(text))
		if end < len(text) {
			end = c.findBreakPoint(text, start, end)
		}

		body := strings.TrimSpace(text[start:end])

		// Only the final tail may run short; mid-text windows below the
		// minimum are not emitted.
		if len(body) >= c.MinSize || end >= len(text) {
			if body != "" {
				chunks = append(chunks, core.Chunk{
					Id:        core.IDFromContent(fmt.Sprintf("%s:%d:%d", file, page, start)),
					File:      file,
					Page:      page,
					Text:      body,
					StartChar: start,
					EndChar:   end,
					Metadata:  metadata,
				})
			}
		}

		if end >= len(text) {
			break
		}

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// Chunks streams chunks for a sequence of page records.
func (c *Chunker) Chunks(pages []*core.PageText) iter.Seq[core.Chunk] {
	return func(yield func(core.Chunk) bool) {
		for _, page := range pages {
			for _, chunk := range c.ChunkText(page.Text, page.File, page.Page, nil) {
				if !yield(chunk) {
					return
				}
			}
		}
	}
}

// findBreakPoint picks the best break position in (start, end], preferring
// paragraph, then sentence, then clause, then word boundaries. A candidate
// that would split a part number token is moved to the token's start.
func (c *Chunker) findBreakPoint(text string, start, end int) int {
	window := text[start:end]

	// Paragraph break close to the end of the window.
	if idx := strings.LastIndex(window, "\n\n"); idx != -1 && idx > len(window)-100 {
		return c.guardPartNumber(text, start, start+idx+2)
	}

	sentenceBreaks := []string{". ", "? ", "! ", ".\n", "?\n", "!\n"}
	if pos, ok := scanBack(text, start, end, 100, sentenceBreaks); ok {
		return c.guardPartNumber(text, start, pos)
	}

	clauseBreaks := []string{", ", "; ", ": ", ",\n", ";\n", ":\n"}
	if pos, ok := scanBack(text, start, end, 50, clauseBreaks); ok {
		return c.guardPartNumber(text, start, pos)
	}

	// Word boundary.
	for i := 0; i < 50 && end-i > start; i++ {
		pos := end - i
		if pos < len(text) && text[pos] == ' ' {
			return c.guardPartNumber(text, start, pos+1)
		}
	}

	return c.guardPartNumber(text, start, end)
}

// scanBack searches backwards from end for the nearest occurrence of any
// break marker within the given reach, returning the position just past it.
func scanBack(text string, start, end, reach int, breaks []string) (int, bool) {
	for i := 0; i < reach && end-i > start; i++ {
		pos := end - i
		for _, b := range breaks {
			if pos+len(b) <= len(text) && text[pos:pos+len(b)] == b {
				return pos + len(b), true
			}
		}
	}
	return 0, false
}

// guardPartNumber shifts a break that falls inside a part number token to
// the token's start, keeping the token whole in the following chunk.
func (c *Chunker) guardPartNumber(text string, start, pos int) int {
	if tokStart, _, inside := normalize.PartNumberAt(text, pos); inside && tokStart > start {
		return tokStart
	}
	return pos
}
