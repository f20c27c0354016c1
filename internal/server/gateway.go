package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/rakunlabs/mockllm/internal/apierr"
	"github.com/rakunlabs/mockllm/internal/audit"
	"github.com/rakunlabs/mockllm/internal/interactive"
	"github.com/rakunlabs/mockllm/internal/pipeline"
	"github.com/rakunlabs/mockllm/internal/router"
	"github.com/rakunlabs/mockllm/internal/scriptengine"
	"github.com/rakunlabs/mockllm/internal/snapshot"
	"github.com/rakunlabs/mockllm/internal/staticengine"
	"github.com/rakunlabs/mockllm/internal/wire"
)

func (s *Server) scriptsDir() string {
	return filepath.Join(s.cfg.ConfigDir, "scripts")
}

// ChatCompletions handles POST /v1/chat/completions, grounded on the
// teacher's own handler of the same name (internal/server/gateway.go):
// decode → resolve the model → run the model's reply strategy → shape onto
// the wire, streaming or not.
func (s *Server) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	snap := s.reload.Current()

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "read request body: %v", err))
		return
	}

	var req wire.ChatRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid request body: %v", err))
		return
	}

	id, model, apiErr := router.Resolve(snap, req.Model)
	if apiErr != nil {
		httpAPIError(w, apiErr)
		return
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano())
	}

	result, chunkChars, apiErr := s.runModel(r.Context(), snap, model, req, bodyBytes, requestID)
	if apiErr != nil {
		httpAPIError(w, apiErr)
		return
	}

	mode, includeUsage, firstDelayMS := pipeline.ResponseConfigFor(snap.Response)
	shaped := pipeline.Shape(result, mode)

	var usage *pipeline.Usage
	if includeUsage {
		u := pipeline.EstimateUsage(utf8.RuneCountInString(staticengine.MatchText(req.Messages)), utf8.RuneCountInString(shaped.Content))
		usage = &u
	}

	created := time.Now().Unix()

	if !req.Stream {
		httpResponseJSON(w, pipeline.NonStream(requestID, id, shaped, usage, created), http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	var flush func()
	if flusher != nil {
		flush = flusher.Flush
	}

	sw := pipeline.NewStreamWriter(w, flush, requestID, id, created)
	sw.Run(shaped, chunkChars, time.Duration(firstDelayMS)*time.Millisecond, usage)
}

// runModel dispatches to the reply strategy named by model.Kind, returning
// a pipeline.Result plus the model's configured stream chunk size.
func (s *Server) runModel(ctx context.Context, snap *snapshot.Snapshot, model *snapshot.Model, req wire.ChatRequest, rawBody []byte, requestID string) (pipeline.Result, int, *apierr.Error) {
	switch model.Kind {
	case snapshot.KindStatic:
		matchText := staticengine.MatchText(req.Messages)
		res := staticengine.Evaluate(model, matchText)
		return pipeline.Result(res), model.Static.StreamChunkChars, nil

	case snapshot.KindScript:
		return s.runScriptModel(snap, model, req, rawBody, requestID)

	case snapshot.KindInteractive:
		return s.runInteractiveModel(ctx, model, rawBody, requestID, req.Stream)

	default:
		return pipeline.Result{}, 0, apierr.New(apierr.Internal, "model %q has unknown kind %q", model.ID, model.Kind)
	}
}

func (s *Server) runScriptModel(snap *snapshot.Snapshot, model *snapshot.Model, req wire.ChatRequest, rawBody []byte, requestID string) (pipeline.Result, int, *apierr.Error) {
	body := model.Script

	modV, err := snap.ScriptCacheLoadOrStore(model.ID, func() (any, error) {
		return scriptengine.Load(s.scriptsDir(), body.File, body.InitFile)
	})
	if err != nil {
		return pipeline.Result{}, 0, apierr.New(apierr.ScriptError, "load script for model %q: %v", model.ID, err)
	}

	mod := modV.(*scriptengine.Module)
	input := scriptengine.BuildInput(rawBody, req, model, requestID, time.Now())

	timeout := time.Duration(body.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	out, apiErr := mod.Invoke(input, timeout)
	if apiErr != nil {
		return pipeline.Result{}, 0, apiErr
	}

	return pipeline.Result{Content: out.Content, Reasoning: out.Reasoning, FinishReason: out.FinishReason}, body.StreamChunkChars, nil
}

func (s *Server) runInteractiveModel(ctx context.Context, model *snapshot.Model, rawBody []byte, requestID string, stream bool) (pipeline.Result, int, *apierr.Error) {
	body := model.Inter

	timeout := time.Duration(body.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	sink := s.broker.Submit(interactive.SubmitParams{
		ID:       requestID,
		Model:    model.ID,
		Messages: rawBody,
		Stream:   stream,
		Timeout:  timeout,
		Fallback: interactive.Reply{
			Content:      body.FallbackText,
			Reasoning:    body.FakeReasoning,
			FinishReason: "stop",
		},
	})

	select {
	case reply := <-sink:
		return pipeline.Result{Content: reply.Content, Reasoning: reply.Reasoning, FinishReason: reply.FinishReason}, body.StreamChunkChars, nil
	case <-ctx.Done():
		s.broker.Abandon(requestID)
		_ = s.audit.RecordInteractive(context.Background(), audit.InteractiveEntry{
			RequestID:  requestID,
			Model:      model.ID,
			QueuedAt:   time.Now(),
			ResolvedAt: time.Now(),
			Outcome:    audit.OutcomeDisconnected,
		})
		return pipeline.Result{}, 0, apierr.New(apierr.Internal, "client disconnected while awaiting an operator reply")
	}
}

// ListModels handles GET /v1/models.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	snap := s.reload.Current()
	models := router.ListModels(snap)

	data := make([]wire.ModelData, 0, len(models))
	for _, m := range models {
		data = append(data, wire.ModelData{ID: m.ID, Object: "model", Created: m.Created, OwnedBy: m.OwnedBy})
	}
	httpResponseJSON(w, wire.ModelsResponse{Object: "list", Data: data}, http.StatusOK)
}

// GetModel handles GET /v1/models/{id}.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap := s.reload.Current()

	for _, m := range router.ListModels(snap) {
		if m.ID == id {
			httpResponseJSON(w, wire.ModelData{ID: m.ID, Object: "model", Created: m.Created, OwnedBy: m.OwnedBy}, http.StatusOK)
			return
		}
	}
	httpAPIError(w, apierr.New(apierr.ModelNotFound, "model %q not found", id))
}
