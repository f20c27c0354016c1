package server

import (
	"encoding/json"
	"net/http"

	"github.com/rakunlabs/mockllm/internal/apierr"
	"github.com/rakunlabs/mockllm/internal/interactive"
)

// ListInteractiveRequests handles GET /interactive/requests: the pending
// table in FIFO arrival order.
func (s *Server) ListInteractiveRequests(w http.ResponseWriter, r *http.Request) {
	httpResponseJSON(w, s.broker.List(), http.StatusOK)
}

type replyRequest struct {
	Content      string `json:"content"`
	Reasoning    string `json:"reasoning"`
	FinishReason string `json:"finish_reason"`
}

// ReplyInteractiveRequest handles POST /interactive/requests/{id}/reply:
// an operator supplying the answer a suspended chat-completion call is
// waiting on.
func (s *Server) ReplyInteractiveRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid request body: %v", err))
		return
	}
	if req.FinishReason == "" {
		req.FinishReason = "stop"
	}

	ok := s.broker.Reply(id, interactive.Reply{
		Content:      req.Content,
		Reasoning:    req.Reasoning,
		FinishReason: req.FinishReason,
	})
	if !ok {
		httpAPIError(w, apierr.New(apierr.BadRequest, "interactive request %q is not pending", id))
		return
	}

	httpResponse(w, "reply accepted", http.StatusOK)
}

// InteractiveStream handles GET /interactive/stream: an SSE broadcast of
// queued/replied/timeout events, for an operator dashboard to follow along
// without polling.
func (s *Server) InteractiveStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpAPIError(w, apierr.New(apierr.Internal, "streaming unsupported by the response writer"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := s.broker.Subscribe()
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := interactive.WriteEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
