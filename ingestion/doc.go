// Package ingestion tracks documents through the vector index lifecycle.
//
// The Service type owns the ingestion job state machine: it creates PENDING
// jobs, hands them to an execution pool, and performs the chunk/embed/store
// work that drives each job to a terminal state. The Batcher type implements
// the adaptive embedding batch pipeline: it partitions chunks into
// size-bounded batches, halves batches the embedding service rejects as
// oversize, retries transient failures with backoff, and reassembles
// results in input order.
//
// Access control is consulted by callers before invoking the Service; the
// state machine itself never evaluates permissions.
package ingestion
