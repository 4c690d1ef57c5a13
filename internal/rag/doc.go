// Package rag composes retrieval and generation into the question
// answering pipeline: normalize the query, search the knowledge base,
// assemble a bounded context window and drive the language model, either
// synchronously or as an ordered stream of progress events.
package rag
