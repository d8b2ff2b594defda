// Package mock provides test doubles for the ai package interfaces.
//
// MockEmbedder implements ai.Embedder with per-test overridable function
// fields. Unconfigured calls return deterministic normalized vectors
// derived from the input text, which keeps index and pipeline tests
// reproducible without a running embedding service.
package mock
