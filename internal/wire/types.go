// Package wire holds the OpenAI-compatible chat-completions wire types:
// the request envelope, the non-stream response, and the SSE chunk shapes.
// Grounded directly on the teacher's internal/server/translate.go, trimmed
// to what a mock server needs (no tool-call/multimodal provider translation,
// since nothing here calls a real backend) and extended with the extra-field
// passthrough the scripting envelope requires.
package wire

import (
	"encoding/json"
)

// Message is one chat message. Content is kept as raw JSON because it may
// be a plain string or a multi-part content array; ContentText extracts the
// text for match-text building and script input.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Name    string          `json:"name,omitempty"`
}

// ContentText returns the message's content as a string: the string itself
// when Content is a JSON string, or the JSON-serialized form for anything
// else (arrays, objects, numbers) per spec.md's "non-string content is
// JSON-serialized before matching" rule.
func (m Message) ContentText() string {
	if len(m.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}
	return string(m.Content)
}

// StreamOptions controls optional streaming behaviour, mirroring the
// OpenAI-compatible request field.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatRequest is the OpenAI-compatible request body. Extra holds every
// top-level field this type does not name explicitly, preserved verbatim
// for the script engine's input envelope (spec.md §4.4's `parsed.extra`).
type ChatRequest struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	Stream        bool            `json:"stream,omitempty"`
	StreamOptions *StreamOptions  `json:"stream_options,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	MaxTokens     *int            `json:"max_tokens,omitempty"`
	Stop          []string        `json:"stop,omitempty"`
	Extra         map[string]any  `json:"-"`
	Raw           json.RawMessage `json:"-"`
}

var knownChatRequestFields = map[string]bool{
	"model": true, "messages": true, "stream": true, "stream_options": true,
	"temperature": true, "top_p": true, "max_tokens": true, "stop": true,
}

// UnmarshalJSON decodes the named fields normally, then collects every
// remaining top-level key into Extra and stashes the original bytes in Raw
// (the script envelope's `request` field is the request exactly as
// received).
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	type shadow ChatRequest
	var s shadow
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ChatRequest(s)
	r.Raw = append(json.RawMessage(nil), data...)

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	extra := make(map[string]any, len(all))
	for k, v := range all {
		if knownChatRequestFields[k] {
			continue
		}
		var decoded any
		if err := json.Unmarshal(v, &decoded); err == nil {
			extra[k] = decoded
		}
	}
	r.Extra = extra
	return nil
}

// ChatCompletionResponse is the non-stream response body.
type ChatCompletionResponse struct {
	ID      string                  `json:"id"`
	Object  string                  `json:"object"`
	Created int64                   `json:"created"`
	Model   string                  `json:"model"`
	Choices []ChatCompletionChoice  `json:"choices"`
	Usage   *ChatCompletionUsage    `json:"usage,omitempty"`
}

type ChatCompletionChoice struct {
	Index        int                   `json:"index"`
	Message      ChatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type ChatCompletionMessage struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelsResponse is the GET /v1/models envelope.
type ModelsResponse struct {
	Object string      `json:"object"`
	Data   []ModelData `json:"data"`
}

type ModelData struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ChatCompletionChunk is one SSE frame of a streaming response.
type ChatCompletionChunk struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Created int64                `json:"created"`
	Model   string               `json:"model"`
	Choices []ChunkChoice        `json:"choices"`
	Usage   *ChatCompletionUsage `json:"usage,omitempty"`
}

type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type ChunkDelta struct {
	Role             string `json:"role,omitempty"`
	Content          string `json:"content,omitempty"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// StreamErrorFrame is the final frame of a stream that failed after at
// least one chunk was already sent (spec.md §7's streaming error policy).
type StreamErrorFrame struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []ErrorChoice `json:"choices"`
}

type ErrorChoice struct {
	Index        int         `json:"index"`
	Delta        ChunkDelta  `json:"delta"`
	FinishReason string      `json:"finish_reason"`
	Error        *WireError  `json:"error"`
}

type WireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
