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

// Package index implements the vector index over embedded document chunks.
//
// The Flat implementation is a brute-force cosine-similarity index: every
// query scans all entries against a normalized query vector. Vectors are
// normalized once at insertion, so similarity reduces to a dot product.
// This is exact and well within budget for the corpus sizes this pipeline
// targets (thousands of chunks per document).
//
// The index dimension is fixed by the first inserted vector; entries with
// a different dimension are rejected with ErrDimensionMismatch.
//
// Persistence uses a two-file layout: a MUS-encoded vector file holding
// the embedding matrix, and a sibling .meta.json file holding chunk
// metadata in readable JSON. See Save and LoadFlat.
//
// Constructors return the Index interface rather than the concrete type
// so callers depend only on the abstraction.
package index
