// Package reembed regenerates the stored vectors of a checkpoint's
// collection with a new embedding model. Entries keep their ids, text,
// and metadata; only the vectors change. Batches run concurrently on a
// worker pool with retry and exponential backoff around the embedding
// calls.
package reembed
