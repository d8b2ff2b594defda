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

// Package pipeline connects the stored page records to the vector index.
//
// Builder is the build stage of the pipeline: it loads a document's page
// records from storage, chunks them, embeds the chunk texts in batches,
// and upserts the embedded entries into the index. Embedding batches run
// in parallel on a dispatch.Pool, and each batch retries transient
// embedder failures with exponential backoff.
//
// The build stage is separate from ingestion so a document can be
// re-chunked and re-embedded (for example after switching embedding
// models) without re-extracting its text.
package pipeline
