package scriptengine

import (
	"encoding/json"
	"time"

	"github.com/rakunlabs/mockllm/internal/apierr"
	"github.com/rakunlabs/mockllm/internal/snapshot"
	"github.com/rakunlabs/mockllm/internal/wire"
)

// Output is the script's return value, normalized per spec.md §4.4.
type Output struct {
	Content      string
	Reasoning    string
	FinishReason string
	Usage        *Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// BuildInput assembles the bit-exact input envelope of spec.md §4.4:
// { request, parsed, model, meta: {request_id, now} }.
func BuildInput(requestRaw []byte, req wire.ChatRequest, model *snapshot.Model, requestID string, now time.Time) map[string]any {
	var requestAny any
	_ = json.Unmarshal(requestRaw, &requestAny)

	parsed := map[string]any{
		"model":    req.Model,
		"messages": messagesToAny(req.Messages),
		"stream":   req.Stream,
		"extra":    req.Extra,
	}
	if req.Temperature != nil {
		parsed["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		parsed["top_p"] = *req.TopP
	}
	if req.MaxTokens != nil {
		parsed["max_tokens"] = *req.MaxTokens
	}
	if req.Stop != nil {
		parsed["stop"] = req.Stop
	}

	return map[string]any{
		"request": requestAny,
		"parsed":  parsed,
		"model":   modelToAny(model),
		"meta": map[string]any{
			"request_id": requestID,
			"now":        now.UTC().Format(time.RFC3339),
		},
	}
}

func messagesToAny(msgs []wire.Message) []any {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		var content any
		_ = json.Unmarshal(m.Content, &content)
		out = append(out, map[string]any{
			"role":    m.Role,
			"content": content,
		})
	}
	return out
}

func modelToAny(m *snapshot.Model) map[string]any {
	out := map[string]any{
		"id":   m.ID,
		"kind": string(m.Kind),
		"meta": map[string]any{
			"owned_by":    m.Meta.OwnedBy,
			"created":     m.Meta.Created,
			"description": m.Meta.Description,
			"tags":        m.Meta.Tags,
		},
	}
	if m.Script != nil {
		out["script"] = map[string]any{
			"file":               m.Script.File,
			"init_file":          m.Script.InitFile,
			"timeout_ms":         m.Script.TimeoutMS,
			"stream_chunk_chars": m.Script.StreamChunkChars,
		}
	}
	return out
}

// parseOutput normalizes a script's exported return value into an Output,
// defaulting finish_reason to "stop" when absent, per spec.md §4.4.
func parseOutput(exported any) (Output, *apierr.Error) {
	m, ok := exported.(map[string]any)
	if !ok {
		return Output{}, apierr.New(apierr.ScriptError, "handle() must return an object, got %T", exported)
	}

	out := Output{FinishReason: "stop"}
	if v, ok := m["content"].(string); ok {
		out.Content = v
	} else {
		return Output{}, apierr.New(apierr.ScriptError, "handle() result is missing a string 'content' field")
	}
	if v, ok := m["reasoning"].(string); ok {
		out.Reasoning = v
	}
	if v, ok := m["finish_reason"].(string); ok && v != "" {
		out.FinishReason = v
	}
	if u, ok := m["usage"].(map[string]any); ok {
		usage := &Usage{}
		usage.PromptTokens = toInt(u["prompt_tokens"])
		usage.CompletionTokens = toInt(u["completion_tokens"])
		usage.TotalTokens = toInt(u["total_tokens"])
		out.Usage = usage
	}
	return out, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
