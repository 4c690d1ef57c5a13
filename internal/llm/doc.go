// Package llm implements the model provider adapters behind the pipeline
// interfaces: a Genkit-backed Google AI provider with native token
// streaming, an OpenAI-compatible provider that also covers local
// llama.cpp servers, and a catalog of local model archives. All providers
// rate-limit outbound calls.
package llm
