package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/campusqa/campusqa/internal/knowledge"
	"github.com/campusqa/campusqa/internal/log"
)

// Defaults for the pipeline knobs. All overridable via Options.
const (
	DefaultTopK              = 2
	DefaultStreamTopK        = 3
	DefaultContextBudget     = 800
	DefaultStreamBudget      = 600
	DefaultMaxTokens         = 150
	DefaultStreamMaxTokens   = 512
	DefaultFallbackMaxTokens = 120

	defaultTemperature  float32 = 0.3
	fallbackTemperature float32 = 0.2
)

// User-facing fallback strings. Generation failures degrade to these
// rather than surfacing raw errors.
const (
	noInfoAnswer = "I don't have information on this topic. Please contact the campus office for help."
	failedAnswer = "I couldn't generate a response."
	streamErrMsg = "Error generating response"
)

// streamStop lists sequences that indicate the model has started
// hallucinating a new conversational turn and must be cut off.
var streamStop = []string{"\n\n", "Question:", "Context:"}

// Searcher is the knowledge base view the pipeline needs.
type Searcher interface {
	Query(ctx context.Context, query string, topK int) (knowledge.SearchResult, error)
}

// Options tune the pipeline. Zero values fall back to the defaults above.
type Options struct {
	TopK              int
	StreamTopK        int
	ContextBudget     int
	StreamBudget      int
	MaxTokens         int
	StreamMaxTokens   int
	FallbackMaxTokens int
	Temperature       float32

	// UseLLMFallback asks the model to phrase the no-information reply in
	// the user's own language instead of returning the canned string.
	UseLLMFallback bool
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.StreamTopK <= 0 {
		o.StreamTopK = DefaultStreamTopK
	}
	if o.ContextBudget <= 0 {
		o.ContextBudget = DefaultContextBudget
	}
	if o.StreamBudget <= 0 {
		o.StreamBudget = DefaultStreamBudget
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.StreamMaxTokens <= 0 {
		o.StreamMaxTokens = DefaultStreamMaxTokens
	}
	if o.FallbackMaxTokens <= 0 {
		o.FallbackMaxTokens = DefaultFallbackMaxTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = defaultTemperature
	}
	return o
}

// AnswerResult is the synchronous pipeline output.
type AnswerResult struct {
	Answer      string   `json:"response"`
	Sources     []string `json:"sources"`
	ContextUsed int      `json:"context_used"`
}

// Engine runs the question answering pipeline. Construct with NewEngine;
// safe for concurrent use.
type Engine struct {
	searcher  Searcher
	generator Generator
	streamer  StreamGenerator
	opts      Options
	logger    log.Logger
}

// NewEngine wires the pipeline. If generator also implements
// StreamGenerator its native token streaming is used; otherwise streamed
// answers are simulated word by word from whole responses.
func NewEngine(searcher Searcher, generator Generator, opts Options, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNop()
	}

	streamer, ok := generator.(StreamGenerator)
	if !ok {
		streamer = WordStreamer{generator}
	}

	return &Engine{
		searcher:  searcher,
		generator: generator,
		streamer:  streamer,
		opts:      opts.withDefaults(),
		logger:    logger.With("component", "rag"),
	}
}

// Answer runs the full pipeline synchronously. It never returns an error:
// retrieval failures degrade to an empty context and generation failures
// to a generic fallback string.
func (e *Engine) Answer(ctx context.Context, query string) AnswerResult {
	retrievalQuery := e.rewriteQuery(ctx, query)
	e.logger.Debug("answering", "query", query, "retrieval_query", retrievalQuery)

	found := e.search(ctx, retrievalQuery, e.opts.TopK)
	if found.Empty() {
		return AnswerResult{
			Answer:  e.noContextAnswer(ctx, query),
			Sources: []string{},
		}
	}

	contextText, used := assembleContext(found.Documents, e.opts.ContextBudget, true)
	if used == 0 {
		return AnswerResult{
			Answer:  e.noContextAnswer(ctx, query),
			Sources: []string{},
		}
	}

	resp, err := e.generator.Generate(ctx, GenerateRequest{
		Prompt:      answerPrompt(contextText, query),
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		e.logger.Warn("answer generation failed", "error", err)
		resp = ""
	}

	answer := cleanText(resp)
	if answer == "" {
		answer = failedAnswer
	}

	return AnswerResult{
		Answer:      answer,
		Sources:     dedupeSources(found.Sources),
		ContextUsed: used,
	}
}

// AnswerStream runs the pipeline emitting progress events in strict
// order: thinking, searching, answering, zero or more streaming partials,
// then exactly one of complete or error. The returned error is non-nil
// only when emit itself fails (consumer gone); pipeline failures surface
// as an error event instead.
func (e *Engine) AnswerStream(ctx context.Context, query string, emit func(Event) error) error {
	if err := emit(progressEvent(PhaseThinking, "Processing your question...")); err != nil {
		return err
	}
	retrievalQuery := e.rewriteQuery(ctx, query)

	if err := emit(progressEvent(PhaseSearching, "Searching knowledge base...")); err != nil {
		return err
	}
	found := e.search(ctx, retrievalQuery, e.opts.StreamTopK)

	if err := emit(progressEvent(PhaseAnswering, "Generating response...")); err != nil {
		return err
	}

	if found.Empty() {
		return emit(completeEvent(e.noContextAnswer(ctx, query), nil, 0))
	}

	contextText, used := assembleContext(found.Documents, e.opts.StreamBudget, false)
	sources := dedupeSources(found.Sources)
	req := GenerateRequest{
		Prompt:    answerPrompt(contextText, query),
		MaxTokens: e.opts.StreamMaxTokens,
		Stop:      streamStop,
	}

	var full strings.Builder
	var emitErr error
	streamErr := e.streamer.GenerateStream(ctx, req, func(token string) error {
		full.WriteString(token)
		if err := emit(streamingEvent(cleanText(full.String()))); err != nil {
			emitErr = err
			return err
		}
		return nil
	})
	if emitErr != nil {
		return emitErr
	}

	if streamErr != nil {
		// Abandon the stream and retry once without incrementality. The
		// consumer already saw partials; only a terminal event follows.
		e.logger.Warn("streaming generation failed, falling back to batch", "error", streamErr)

		req.MaxTokens = e.opts.FallbackMaxTokens
		req.Temperature = fallbackTemperature
		resp, err := e.generator.Generate(ctx, req)
		if err != nil {
			e.logger.Warn("fallback generation failed", "error", err)
			return emit(errorEvent(streamErrMsg))
		}
		return emit(completeEvent(cleanText(resp), sources, used))
	}

	return emit(completeEvent(cleanText(full.String()), sources, used))
}

// search degrades every retrieval failure to an empty result. Users see
// "no relevant documents" rather than an error.
func (e *Engine) search(ctx context.Context, query string, topK int) knowledge.SearchResult {
	found, err := e.searcher.Query(ctx, query, topK)
	if err != nil {
		e.logger.Warn("knowledge base search failed", "error", err)
		return knowledge.SearchResult{}
	}
	return found
}

// noContextAnswer produces the no-information reply used when retrieval
// comes back empty.
func (e *Engine) noContextAnswer(ctx context.Context, query string) string {
	if !e.opts.UseLLMFallback {
		return noInfoAnswer
	}

	resp, err := e.generator.Generate(ctx, GenerateRequest{
		Prompt:      noInfoPrompt(query),
		MaxTokens:   e.opts.FallbackMaxTokens,
		Temperature: fallbackTemperature,
	})
	if err != nil {
		e.logger.Warn("no-context fallback generation failed", "error", err)
		return noInfoAnswer
	}
	if answer := cleanText(resp); answer != "" {
		return answer
	}
	return noInfoAnswer
}

func answerPrompt(contextText, query string) string {
	return fmt.Sprintf(`Answer the question using only the context provided. Be concise. If the context does not contain the answer, say so politely. Reply in the same language as the question.

Context: %s

Question: %s

Answer:`, contextText, query)
}

func noInfoPrompt(query string) string {
	return fmt.Sprintf(`The knowledge base has no information about the question below. Write a short, polite reply in the same language as the question, saying the information is not available and suggesting the campus office.

Question: %s

Answer:`, query)
}

// cleanText trims the string and strips any leading run of stray
// punctuation the model sometimes prefixes answers with.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	for s != "" && strings.ContainsRune(".,:;!\n\r\t ", rune(s[0])) {
		s = strings.TrimSpace(s[1:])
	}
	return s
}
