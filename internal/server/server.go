// Package server implements the HTTP edge: the OpenAI-compatible gateway
// (/v1/chat/completions, /v1/models) and the admin surface (/v0/*), per
// spec.md §4.8/§6. Grounded directly on the teacher's internal/server/
// server.go for the ada.Server setup, middleware stack, and route-group
// shape, and admin.go/provider.go/triggers.go for the admin CRUD idiom
// (decode body → validate → call core → httpResponseJSON).
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rakunlabs/ada"
	mcors "github.com/rakunlabs/ada/middleware/cors"
	mlog "github.com/rakunlabs/ada/middleware/log"
	mrecover "github.com/rakunlabs/ada/middleware/recover"
	mrequestid "github.com/rakunlabs/ada/middleware/requestid"
	mserver "github.com/rakunlabs/ada/middleware/server"
	mtelemetry "github.com/rakunlabs/ada/middleware/telemetry"

	"github.com/rakunlabs/mockllm/internal/audit"
	"github.com/rakunlabs/mockllm/internal/config"
	"github.com/rakunlabs/mockllm/internal/interactive"
	"github.com/rakunlabs/mockllm/internal/reload"
)

// Server wires the reload controller, the interactive broker, and the
// audit store behind the HTTP surface. Every handler reads
// reload.Controller.Current() fresh per request; nothing here holds its
// own snapshot pointer, per spec.md §3's "immutable view handed to every
// request at arrival time".
type Server struct {
	// cfgMu guards the subset of cfg an admin PUT/PATCH /config call can
	// change at runtime: Server.Auth, Server.AdminAuth, Response. Every
	// other field (listen address, base path, store/notify wiring) is
	// fixed for the process lifetime.
	cfgMu sync.RWMutex
	cfg   config.Config

	mux    *ada.Server
	reload *reload.Controller
	broker *interactive.Broker
	audit  audit.Store
}

func New(cfg config.Config, rc *reload.Controller, broker *interactive.Broker, store audit.Store) *Server {
	mux := ada.New()
	mux.Use(
		mrecover.Middleware(),
		mserver.Middleware(config.Service),
		mcors.Middleware(),
		mrequestid.Middleware(),
		mlog.Middleware(),
		mtelemetry.Middleware(),
	)

	s := &Server{cfg: cfg, mux: mux, reload: rc, broker: broker, audit: store}

	baseGroup := mux.Group(cfg.Server.BasePath)

	gatewayGroup := baseGroup.Group("/v1")
	gatewayGroup.Use(bearerAuthMiddleware(s.authConfig))
	gatewayGroup.POST("/chat/completions", s.ChatCompletions)
	gatewayGroup.GET("/models", s.ListModels)
	gatewayGroup.GET("/models/{id}", s.GetModel)

	// /v0/admin/auth is the one admin route spec.md §6 leaves unauthenticated
	// (a client needs it to learn whether to prompt for an admin token in
	// the first place), so it lives on adminGroup itself while every other
	// admin route sits behind settingsGroup, a dedicated child group with
	// its own bearer-auth middleware. Keeping the authed routes in a child
	// group rather than relying on Use() only binding routes registered
	// after it within the same group.
	adminGroup := baseGroup.Group("/v0")
	adminGroup.GET("/admin/auth", s.AdminAuthInfo)

	settingsGroup := adminGroup.Group("/")
	settingsGroup.Use(bearerAuthMiddleware(s.adminAuthConfig))
	settingsGroup.GET("/status", s.Status)
	settingsGroup.POST("/reload", s.Reload)
	settingsGroup.GET("/config", s.GetConfig)
	settingsGroup.PUT("/config", s.PutConfig)
	settingsGroup.PATCH("/config", s.PatchConfig)
	settingsGroup.GET("/models", s.GetModelsBundle)
	settingsGroup.PUT("/models", s.PutModelsBundle)
	settingsGroup.GET("/scripts", s.ListScripts)
	settingsGroup.GET("/scripts/{name}", s.GetScript)
	settingsGroup.PUT("/scripts/{name}", s.PutScript)
	settingsGroup.DELETE("/scripts/{name}", s.DeleteScript)
	settingsGroup.GET("/interactive/requests", s.ListInteractiveRequests)
	settingsGroup.POST("/interactive/requests/{id}/reply", s.ReplyInteractiveRequest)
	settingsGroup.GET("/interactive/stream", s.InteractiveStream)

	// Background subscriber: records interactive history for every
	// replied/timeout outcome, since the broker itself never touches the
	// audit store (it has no concept of persistence, only suspend/resume).
	go s.recordInteractiveOutcomes()

	return s
}

func (s *Server) Start(ctx context.Context) error {
	return s.mux.StartWithContext(ctx, net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port))
}

func (s *Server) authConfig() config.BearerAuth {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Server.Auth
}

func (s *Server) adminAuthConfig() config.BearerAuth {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Server.AdminAuth
}

func (s *Server) responseConfig() config.Response {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Response
}

// recordInteractiveOutcomes subscribes to the broker's event stream for the
// process lifetime and appends a row for every terminal (replied/timeout)
// event. Disconnected outcomes are recorded directly by the handler that
// observes the client going away, since the broker deliberately never
// broadcasts that case.
func (s *Server) recordInteractiveOutcomes() {
	events, unsubscribe := s.broker.Subscribe()
	defer unsubscribe()

	for ev := range events {
		var outcome audit.InteractiveOutcome
		switch ev.Type {
		case interactive.EventReplied:
			outcome = audit.OutcomeReplied
		case interactive.EventTimeout:
			outcome = audit.OutcomeTimeout
		default:
			continue
		}

		err := s.audit.RecordInteractive(context.Background(), audit.InteractiveEntry{
			RequestID:  ev.ID,
			Model:      ev.Model,
			QueuedAt:   ev.CreatedAt,
			ResolvedAt: time.Now(),
			Outcome:    outcome,
		})
		if err != nil {
			slog.Error("audit: record interactive outcome failed", "error", err, "request_id", ev.ID)
		}
	}
}
