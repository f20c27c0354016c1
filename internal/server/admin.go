package server

import (
	"encoding/json"
	"net/http"

	"github.com/rakunlabs/mockllm/internal/apierr"
	"github.com/rakunlabs/mockllm/internal/config"
)

// AdminAuthInfo handles the one deliberately unauthenticated admin route,
// GET /admin/auth, so an operator tool can discover whether it needs to
// send a bearer token before attempting anything else under /v0.
func (s *Server) AdminAuthInfo(w http.ResponseWriter, r *http.Request) {
	httpResponseJSON(w, map[string]bool{"enabled": s.adminAuthConfig().Enabled}, http.StatusOK)
}

type statusResponse struct {
	Generation   uint64 `json:"generation"`
	DefaultModel string `json:"default_model"`
	ModelCount   int    `json:"model_count"`
	AliasCount   int    `json:"alias_count"`
}

// Status handles GET /status: a snapshot summary, grounded on the
// teacher's own /status handler (internal/server/server.go).
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	snap := s.reload.Current()
	httpResponseJSON(w, statusResponse{
		Generation:   snap.Generation,
		DefaultModel: snap.DefaultModel,
		ModelCount:   len(snap.Models()),
		AliasCount:   len(snap.Aliases()),
	}, http.StatusOK)
}

type reloadResponse struct {
	Reloaded bool `json:"reloaded"`
}

// Reload handles POST /reload: a debounced rebuild of the live snapshot,
// per spec.md §4.7.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	reloaded, errs := s.reload.Reload()
	if errs != nil {
		details := make([]string, 0, len(errs))
		for _, e := range errs {
			details = append(details, e.Error())
		}
		httpAPIError(w, apierr.NewWithDetails(apierr.ReloadFailed, "reload validation failed", details))
		return
	}
	httpResponseJSON(w, reloadResponse{Reloaded: reloaded}, http.StatusOK)
}

// editableConfig is the admin-visible, admin-writable subset of
// config.Config: the server's two auth gates and the default response
// shaping. Everything else (listen address, base path, store/notify
// wiring) is fixed at process startup and not exposed here.
type editableConfig struct {
	Server   editableServer   `json:"server"`
	Response editableResponse `json:"response"`
}

type editableServer struct {
	Auth      editableBearerAuth `json:"auth"`
	AdminAuth editableBearerAuth `json:"admin_auth"`
}

type editableBearerAuth struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
}

type editableResponse struct {
	ReasoningMode      string `json:"reasoning_mode"`
	IncludeUsage       bool   `json:"include_usage"`
	StreamFirstDelayMS int    `json:"stream_first_delay_ms"`
}

func (s *Server) currentEditableConfig() editableConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return editableConfig{
		Server: editableServer{
			Auth:      editableBearerAuth{Enabled: s.cfg.Server.Auth.Enabled, Token: s.cfg.Server.Auth.Token},
			AdminAuth: editableBearerAuth{Enabled: s.cfg.Server.AdminAuth.Enabled, Token: s.cfg.Server.AdminAuth.Token},
		},
		Response: editableResponse{
			ReasoningMode:      s.cfg.Response.ReasoningMode,
			IncludeUsage:       s.cfg.Response.IncludeUsage,
			StreamFirstDelayMS: s.cfg.Response.StreamFirstDelayMS,
		},
	}
}

// GetConfig handles GET /config.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	httpResponseJSON(w, s.currentEditableConfig(), http.StatusOK)
}

// PutConfig handles PUT /config: a full replacement of the editable
// subset, taking effect immediately (auth gates are read per request;
// response shaping takes effect on the next reload, which this triggers).
func (s *Server) PutConfig(w http.ResponseWriter, r *http.Request) {
	var ec editableConfig
	if err := json.NewDecoder(r.Body).Decode(&ec); err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid request body: %v", err))
		return
	}
	s.applyEditableConfig(ec)
	s.maybeAutoCommit("config.yaml: full replacement")
	s.GetConfig(w, r)
}

// PatchConfig handles PATCH /config: a partial merge over the current
// editable config. Only fields present in the request body are applied;
// distinguishing "absent" from "zero value" uses a plain map walk rather
// than pointer fields, mirroring the merge idiom of internal/catalog's own
// template-overlay helpers.
func (s *Server) PatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid request body: %v", err))
		return
	}

	ec := s.currentEditableConfig()

	if raw, ok := patch["server"]; ok {
		var partial map[string]json.RawMessage
		if err := json.Unmarshal(raw, &partial); err != nil {
			httpAPIError(w, apierr.New(apierr.BadRequest, "invalid server patch: %v", err))
			return
		}
		if v, ok := partial["auth"]; ok {
			if err := json.Unmarshal(v, &ec.Server.Auth); err != nil {
				httpAPIError(w, apierr.New(apierr.BadRequest, "invalid server.auth patch: %v", err))
				return
			}
		}
		if v, ok := partial["admin_auth"]; ok {
			if err := json.Unmarshal(v, &ec.Server.AdminAuth); err != nil {
				httpAPIError(w, apierr.New(apierr.BadRequest, "invalid server.admin_auth patch: %v", err))
				return
			}
		}
	}
	if raw, ok := patch["response"]; ok {
		if err := json.Unmarshal(raw, &ec.Response); err != nil {
			httpAPIError(w, apierr.New(apierr.BadRequest, "invalid response patch: %v", err))
			return
		}
	}

	s.applyEditableConfig(ec)
	s.maybeAutoCommit("config.yaml: partial merge")
	s.GetConfig(w, r)
}

func (s *Server) applyEditableConfig(ec editableConfig) {
	s.cfgMu.Lock()
	s.cfg.Server.Auth = config.BearerAuth{Enabled: ec.Server.Auth.Enabled, Token: ec.Server.Auth.Token}
	s.cfg.Server.AdminAuth = config.BearerAuth{Enabled: ec.Server.AdminAuth.Enabled, Token: ec.Server.AdminAuth.Token}
	s.cfg.Response = config.Response{
		ReasoningMode:      ec.Response.ReasoningMode,
		IncludeUsage:       ec.Response.IncludeUsage,
		StreamFirstDelayMS: ec.Response.StreamFirstDelayMS,
	}
	s.cfgMu.Unlock()

	// Response shaping lives in the snapshot, not read fresh per request,
	// so a config change only takes effect once a rebuild has run.
	s.reload.Reload()
}
