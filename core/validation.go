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

package core

import "fmt"

// ValidateMethod reports whether method is one of the recognized
// extraction methods.
func ValidateMethod(method string) error {
	switch method {
	case MethodPrimary, MethodSecondary, MethodOCR, MethodMerged, MethodNone:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

// ValidatePageText validates a PageText according to domain rules.
//
// Validation rules:
//   - File must not be empty
//   - Page must not be negative
//   - Method must be a recognized extraction method
//
// NOT validated:
//   - Text (empty text is a legal degraded result)
//   - Blocks (empty unless OCR was invoked)
func ValidatePageText(pt *PageText) error {
	if pt == nil {
		return fmt.Errorf("%w: page text is nil", ErrInvalidPageText)
	}
	if pt.File == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPageText, ErrEmptyFile)
	}
	if pt.Page < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPageText, ErrNegativePage)
	}
	if err := ValidateMethod(pt.Method); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPageText, err)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - File must not be empty
//   - Text must not be empty
//   - StartChar/EndChar must describe a non-empty forward range
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if c.File == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyFile)
	}
	if c.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}
	if c.StartChar < 0 || c.EndChar <= c.StartChar {
		return fmt.Errorf("%w: %w: start=%d end=%d", ErrInvalidChunk, ErrInvalidOffsets, c.StartChar, c.EndChar)
	}
	return nil
}

// ValidateCheckpoint validates a Checkpoint according to domain rules.
//
// Validation rules:
//   - DocPath must not be empty
//   - LastPage must not be negative
//   - BatchSize must be positive
func ValidateCheckpoint(cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("%w: checkpoint is nil", ErrInvalidCheckpoint)
	}
	if cp.DocPath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCheckpoint, ErrEmptyFile)
	}
	if cp.LastPage < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCheckpoint, ErrNegativePage)
	}
	if cp.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidCheckpoint)
	}
	return nil
}
