// Package mock provides test doubles for the ai interfaces. The embedder
// produces deterministic hash-derived vectors so similarity tests are
// repeatable without a live embedding service.
package mock
