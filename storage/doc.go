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

// Package storage provides the persistence abstraction layer for narrator.
//
// It defines store interfaces that decouple the ingestion pipeline from the
// backends that hold its state, so that different implementations (BadgerDB,
// plain files, in-memory test doubles) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces, not concrete types:
//
//	store, err := badger.NewStore(path)  // returns storage.Store
//
// This keeps consumers decoupled from backend specifics and lets tests swap
// in alternative implementations without modification. Internal constructors
// (newBackend, etc.) may return concrete types.
//
// # Stores
//
//   - CheckpointStore: resume checkpoints, one per document
//   - PageRecordStore: per-page extraction results
//   - Store: both behind one backend handle
//
// Two implementations ship with narrator: storage/file holds checkpoints as
// atomic JSON files for easy inspection, and storage/badger holds both
// checkpoints and page records in a BadgerDB key-value store. NewSplitStore
// combines the two when checkpoints should live outside the database.
//
// # Thread Safety
//
// All store implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All store methods accept context.Context for cancellation and timeout
// support.
package storage
