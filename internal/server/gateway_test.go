package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rakunlabs/mockllm/internal/audit"
	"github.com/rakunlabs/mockllm/internal/config"
	"github.com/rakunlabs/mockllm/internal/interactive"
	"github.com/rakunlabs/mockllm/internal/reload"
	"github.com/rakunlabs/mockllm/internal/snapshot"
	"github.com/rakunlabs/mockllm/internal/wire"
)

func staticSnapshot() *snapshot.Snapshot {
	models := map[string]*snapshot.Model{
		"echo": {
			ID:      "echo",
			Kind:    snapshot.KindStatic,
			Enabled: true,
			Static: &snapshot.StaticBody{
				Pick:             snapshot.PickRoundRobin,
				StreamChunkChars: 4,
				Rules: []snapshot.Rule{
					{Default: true, Replies: []snapshot.Reply{{Content: "hello there"}}},
				},
			},
		},
	}
	return snapshot.NewSnapshot(1, "echo", snapshot.ResponseConfig{ReasoningMode: "none", IncludeUsage: true}, models, nil)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	snap := staticSnapshot()
	rc, errs := reload.New(0, func(generation uint64) (*snapshot.Snapshot, []error) {
		return snap, nil
	}, nil)
	if errs != nil {
		t.Fatalf("unexpected build errors: %v", errs)
	}

	broker := interactive.NewBroker()
	t.Cleanup(broker.Close)

	store := audit.NewMemory()
	cfg := config.Config{ConfigDir: t.TempDir()}

	return New(cfg, rc, broker, store)
}

func TestChatCompletions_StaticModel_NonStream(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(wire.ChatRequest{Model: "echo", Messages: []wire.Message{
		{Role: "user", Content: json.RawMessage(`"hi"`)},
	}})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.ChatCompletions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp wire.ChatCompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hello there" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage == nil {
		t.Fatal("expected usage to be populated")
	}
}

func TestChatCompletions_UnknownModel_ReturnsModelNotFound(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(wire.ChatRequest{Model: "nope"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.ChatCompletions(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", w.Code, w.Body.String())
	}
}

func TestListModels_ReturnsConfiguredModel(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	s.ListModels(w, req)

	var resp wire.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "echo" {
		t.Fatalf("unexpected models list: %+v", resp.Data)
	}
}

func TestGetModel_UnknownID_ReturnsNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/models/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	s.GetModel(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
