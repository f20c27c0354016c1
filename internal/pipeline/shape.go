// Package pipeline converts a backend result {content, reasoning?,
// finish_reason} into the OpenAI-compatible wire envelope, per spec.md
// §4.6: reasoning-mode shaping, usage estimation, and SSE/non-stream
// framing. Grounded on the teacher's internal/server/gateway.go streaming
// path and translate.go's chunk/response types.
package pipeline

import (
	"math"

	"github.com/rakunlabs/mockllm/internal/snapshot"
)

// Result is the backend's raw answer before wire shaping.
type Result struct {
	Content      string
	Reasoning    string
	FinishReason string
}

// Shaped is a Result after reasoning-mode transformation, ready to be
// chunked or emitted as a single body.
type Shaped struct {
	Content          string
	ReasoningContent string // set only in field/both modes
	FinishReason     string
}

// Shape applies spec.md §4.6's reasoning-mode table. Mode must already be
// normalized to one of none/prefix/field/both (internal/config folds the
// deprecated "append" spelling to "prefix" at the boundary).
func Shape(r Result, mode string) Shaped {
	out := Shaped{Content: r.Content, FinishReason: r.FinishReason}

	switch mode {
	case "prefix", "both":
		if r.Reasoning != "" {
			out.Content = "<think>\n" + r.Reasoning + "\n</think>\n\n" + r.Content
		}
	}
	switch mode {
	case "field", "both":
		out.ReasoningContent = r.Reasoning
	}

	return out
}

// Usage is the approximate token accounting of spec.md §4.6.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// EstimateUsage approximates token counts as ceil(chars/4), documented as
// approximate per spec.md — this server never tokenizes for real.
func EstimateUsage(promptChars, contentChars int) Usage {
	prompt := int(math.Ceil(float64(promptChars) / 4))
	completion := int(math.Ceil(float64(contentChars) / 4))
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// ChunkContent splits s into chunks of n Unicode scalars (runes), per
// spec.md §4.6's "chunking is by Unicode scalar, not by byte". n<1 is
// coerced to 1.
func ChunkContent(s string, n int) []string {
	if n < 1 {
		n = 1
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+n-1)/n)
	for i := 0; i < len(runes); i += n {
		end := i + n
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// streamChunkChars resolves the effective chunk size for a model, falling
// back to 1 when unset (spec.md §4.6's "minimum 1").
func streamChunkChars(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ResponseConfigFor adapts a snapshot.ResponseConfig into the values this
// package needs, so callers don't reach into internal/snapshot directly.
func ResponseConfigFor(resp snapshot.ResponseConfig) (mode string, includeUsage bool, firstDelayMS int) {
	return resp.ReasoningMode, resp.IncludeUsage, resp.StreamFirstDelayMS
}
