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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPageText indicates a PageText failed validation.
	ErrInvalidPageText = errors.New("invalid page text")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidCheckpoint indicates a Checkpoint failed validation.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")

	// ErrNegativePage indicates a negative page index.
	ErrNegativePage = errors.New("page index cannot be negative")

	// ErrEmptyFile indicates the File field is empty.
	ErrEmptyFile = errors.New("file path cannot be empty")

	// ErrUnknownMethod indicates an unrecognized extraction method.
	ErrUnknownMethod = errors.New("unknown extraction method")

	// ErrEmptyChunkText indicates the chunk Text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrInvalidOffsets indicates chunk character offsets are inconsistent.
	ErrInvalidOffsets = errors.New("chunk offsets are inconsistent")
)
