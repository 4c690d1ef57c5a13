package rag

import "strings"

// minPartialChars is the smallest truncated chunk prefix worth including
// in the context window. Anything shorter is dropped instead.
const minPartialChars = 100

// assembleContext packs ranked chunks into a context window of at most
// budget characters, joined with blank lines so topic boundaries stay
// visible to the model. When allowPartial is set, a chunk that does not
// fit whole may contribute an ellipsis-terminated prefix if the remaining
// budget is still useful. Returns the window and the number of chunks
// (whole or truncated) it contains.
func assembleContext(chunks []string, budget int, allowPartial bool) (string, int) {
	var parts []string
	total := 0

	for _, chunk := range chunks {
		sep := 0
		if len(parts) > 0 {
			sep = len("\n\n")
		}
		runes := []rune(chunk)
		if total+sep+len(runes) > budget {
			if allowPartial {
				remaining := budget - total - sep
				if remaining > minPartialChars {
					parts = append(parts, string(runes[:remaining])+"...")
				}
			}
			break
		}
		parts = append(parts, chunk)
		total += sep + len(runes)
	}

	return strings.Join(parts, "\n\n"), len(parts)
}

// dedupeSources removes duplicate filenames, keeping first-seen order.
func dedupeSources(sources []string) []string {
	out := make([]string, 0, len(sources))
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
