// Package knowledge manages the document index backing retrieval.
//
// Documents are read from a directory on disk, split into chunks, embedded
// in batches and stored in an embedded vector database persisted under the
// configured path. Rebuilds are atomic from the reader's point of view: the
// previous index keeps serving queries until the replacement is fully
// embedded and written.
package knowledge
