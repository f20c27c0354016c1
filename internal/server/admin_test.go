package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminAuthInfo_ReportsDisabledByDefault(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v0/admin/auth", nil)
	w := httptest.NewRecorder()
	s.AdminAuthInfo(w, req)

	var resp map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["enabled"] {
		t.Error("expected admin auth disabled by default")
	}
}

func TestStatus_ReportsSnapshotSummary(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v0/status", nil)
	w := httptest.NewRecorder()
	s.Status(w, req)

	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DefaultModel != "echo" || resp.ModelCount != 1 {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestPatchConfig_MergesResponseBlockOnly(t *testing.T) {
	s := newTestServer(t)

	patch := []byte(`{"response":{"reasoning_mode":"field","include_usage":false,"stream_first_delay_ms":10}}`)
	req := httptest.NewRequest(http.MethodPatch, "/v0/config", bytes.NewReader(patch))
	w := httptest.NewRecorder()
	s.PatchConfig(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp editableConfig
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response.ReasoningMode != "field" || resp.Response.IncludeUsage {
		t.Fatalf("unexpected merged config: %+v", resp)
	}
	if resp.Server.Auth.Enabled {
		t.Fatal("patching response should not have touched server.auth")
	}
}

func TestPutConfig_ReplacesAuthGates(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(editableConfig{
		Server: editableServer{
			AdminAuth: editableBearerAuth{Enabled: true, Token: "abc123"},
		},
	})
	req := httptest.NewRequest(http.MethodPut, "/v0/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.PutConfig(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if auth := s.adminAuthConfig(); !auth.Enabled || auth.Token != "abc123" {
		t.Fatalf("admin auth not applied: %+v", auth)
	}
}
