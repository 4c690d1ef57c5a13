// Package chunker splits document text into bounded, sentence-respecting
// segments for embedding and retrieval.
package chunker

import "strings"

// Default chunking parameters. Overridable via configuration.
const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// Split cuts text into chunks of at most size characters with roughly
// overlap characters repeated between consecutive chunks.
//
// The cursor walks left to right. Each window is shrunk back to the last
// sentence terminator ('.') when one occurs past the window midpoint, so
// sentences stay intact where possible. Chunks are whitespace-trimmed and
// empty chunks are dropped. The cursor always advances, so the walk
// terminates even for degenerate overlap values.
//
// Sizes are measured in runes so multi-byte scripts are not cut mid-character.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		} else if end < len(runes) {
			// Prefer ending just after the last sentence terminator,
			// but only when it lies past the window midpoint. Otherwise
			// a raw fixed-size cut is better than a tiny chunk.
			if p := lastPeriod(runes, start, end); p > start+size/2 {
				end = p + 1
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}

		// Step back by overlap, but never stall: if the overlap would
		// not move the cursor forward, continue from the window end.
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// lastPeriod returns the index of the last '.' in runes[start:end],
// or -1 if none exists.
func lastPeriod(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '.' {
			return i
		}
	}
	return -1
}
