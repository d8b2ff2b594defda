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

// Package search provides hybrid semantic and keyword search over the
// vector index.
//
// The Searcher type implements a two-stage search algorithm that combines:
//   - Semantic search using vector embeddings against the chunk index
//   - Verbatim keyword matching with stop-word filtering
//
// Chunks matched by both stages are boosted above purely semantic or
// purely keyword hits, so exact part numbers and error codes surface even
// when the embedding similarity is modest.
package search
