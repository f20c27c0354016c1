package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rakunlabs/mockllm/internal/wire"
)

// NonStream builds the single-body chat.completion response, per spec.md
// §4.6's "same envelope, single JSON body, no SSE framing".
func NonStream(chatID, model string, shaped Shaped, usage *Usage, created int64) wire.ChatCompletionResponse {
	msg := wire.ChatCompletionMessage{
		Role:             "assistant",
		Content:          shaped.Content,
		ReasoningContent: shaped.ReasoningContent,
	}
	resp := wire.ChatCompletionResponse{
		ID:      chatID,
		Object:  "chat.completion",
		Created: created,
		Model:   model,
		Choices: []wire.ChatCompletionChoice{{
			Index:        0,
			Message:      msg,
			FinishReason: shaped.FinishReason,
		}},
	}
	if usage != nil {
		resp.Usage = &wire.ChatCompletionUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}
	return resp
}

// StreamWriter emits the SSE frames of spec.md §4.6: one start frame, one
// frame per content chunk (and, in field/both modes, reasoning chunks share
// the same chunk boundaries as content since they are emitted in the same
// delta), a final frame carrying finish_reason/usage, and a [DONE]
// sentinel. Grounded closely on the teacher's writeSSEChunk/
// handleStreamingChat shape in internal/server/gateway.go.
type StreamWriter struct {
	w       io.Writer
	flush   func()
	chatID  string
	model   string
	created int64
}

func NewStreamWriter(w io.Writer, flush func(), chatID, model string, created int64) *StreamWriter {
	return &StreamWriter{w: w, flush: flush, chatID: chatID, model: model, created: created}
}

func (sw *StreamWriter) writeChunk(c wire.ChatCompletionChunk) {
	c.ID = sw.chatID
	c.Object = "chat.completion.chunk"
	c.Model = sw.model
	c.Created = sw.created
	data, _ := json.Marshal(c)
	fmt.Fprintf(sw.w, "data: %s\n\n", data)
	if sw.flush != nil {
		sw.flush()
	}
}

// Run drives the full stream: start frame, chunked content, final frame,
// [DONE]. firstDelay is applied once before the first content chunk, per
// spec.md §4.6's stream_first_delay_ms. Headers are already committed by
// the time Run is called, so a failure partway through cannot change the
// HTTP status; per spec.md §7 it instead closes the stream with a final
// error frame.
func (sw *StreamWriter) Run(shaped Shaped, chunkChars int, firstDelay time.Duration, usage *Usage) {
	defer func() {
		if r := recover(); r != nil {
			WriteStreamError(sw.w, sw.flush, sw.chatID, sw.model, fmt.Sprintf("%v", r), "server_error")
		}
	}()

	sw.writeChunk(wire.ChatCompletionChunk{
		Choices: []wire.ChunkChoice{{Index: 0, Delta: wire.ChunkDelta{Role: "assistant"}}},
	})

	chunks := ChunkContent(shaped.Content, streamChunkChars(chunkChars))
	for i, chunk := range chunks {
		if i == 0 && firstDelay > 0 {
			time.Sleep(firstDelay)
		}
		delta := wire.ChunkDelta{Content: chunk}
		if shaped.ReasoningContent != "" {
			delta.ReasoningContent = reasoningChunkAt(shaped.ReasoningContent, len(chunks), i, chunkChars)
		}
		sw.writeChunk(wire.ChatCompletionChunk{
			Choices: []wire.ChunkChoice{{Index: 0, Delta: delta}},
		})
	}

	finishReason := shaped.FinishReason
	final := wire.ChatCompletionChunk{
		Choices: []wire.ChunkChoice{{Index: 0, Delta: wire.ChunkDelta{}, FinishReason: &finishReason}},
	}
	if usage != nil {
		final.Usage = &wire.ChatCompletionUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}
	sw.writeChunk(final)

	fmt.Fprint(sw.w, "data: [DONE]\n\n")
	if sw.flush != nil {
		sw.flush()
	}
}

// reasoningChunkAt splits reasoning content across the same number of
// frames as content, so the two deltas stay in lockstep; the final frame
// absorbs any remainder.
func reasoningChunkAt(reasoning string, totalChunks, index, chunkChars int) string {
	rChunks := ChunkContent(reasoning, streamChunkChars(chunkChars))
	if index >= len(rChunks) {
		return ""
	}
	if index == totalChunks-1 {
		return strings.Join(rChunks[index:], "")
	}
	return rChunks[index]
}
