// Package ingestion loads archive material into a checkpoint's embedding
// collection. Text files are split into overlapping chunks at sentence
// boundaries; JSON message exports are ingested one message per entry.
// Each stored chunk also gets a source document row for auditing.
package ingestion
