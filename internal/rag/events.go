package rag

import "encoding/json"

// Phase tags the stage of a streamed answer an Event belongs to.
type Phase string

const (
	PhaseThinking  Phase = "thinking"
	PhaseSearching Phase = "searching"
	PhaseAnswering Phase = "answering"
	PhaseStreaming Phase = "streaming"
	PhaseComplete  Phase = "complete"
	PhaseError     Phase = "error"
)

// Event is one entry of a streamed answer sequence. Which fields are set
// depends on the phase: progress phases carry Message, streaming carries
// Partial, complete carries Response, Sources and ContextUsed, and error
// carries Error.
type Event struct {
	Phase       Phase    `json:"phase"`
	Message     string   `json:"message"`
	Partial     string   `json:"partial_response"`
	Response    string   `json:"response"`
	Sources     []string `json:"sources"`
	ContextUsed int      `json:"context_used"`
	Error       string   `json:"error"`
}

// MarshalJSON emits the phase-specific wire shape. Fields belonging to
// the phase are always present: a complete event carries sources and
// context_used even when empty, a streaming event carries
// partial_response even when the partial is still "".
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Phase {
	case PhaseStreaming:
		return json.Marshal(struct {
			Phase   Phase  `json:"phase"`
			Partial string `json:"partial_response"`
		}{e.Phase, e.Partial})
	case PhaseComplete:
		sources := e.Sources
		if sources == nil {
			sources = []string{}
		}
		return json.Marshal(struct {
			Phase       Phase    `json:"phase"`
			Response    string   `json:"response"`
			Sources     []string `json:"sources"`
			ContextUsed int      `json:"context_used"`
		}{e.Phase, e.Response, sources, e.ContextUsed})
	case PhaseError:
		return json.Marshal(struct {
			Phase Phase  `json:"phase"`
			Error string `json:"error"`
		}{e.Phase, e.Error})
	default:
		return json.Marshal(struct {
			Phase   Phase  `json:"phase"`
			Message string `json:"message"`
		}{e.Phase, e.Message})
	}
}

func progressEvent(phase Phase, message string) Event {
	return Event{Phase: phase, Message: message}
}

func streamingEvent(partial string) Event {
	return Event{Phase: PhaseStreaming, Partial: partial}
}

func completeEvent(response string, sources []string, contextUsed int) Event {
	if sources == nil {
		sources = []string{}
	}
	return Event{Phase: PhaseComplete, Response: response, Sources: sources, ContextUsed: contextUsed}
}

func errorEvent(message string) Event {
	return Event{Phase: PhaseError, Error: message}
}
