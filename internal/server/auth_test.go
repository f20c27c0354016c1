package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rakunlabs/mockllm/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware_DisabledPassesThrough(t *testing.T) {
	mw := bearerAuthMiddleware(func() config.BearerAuth { return config.BearerAuth{Enabled: false} })
	h := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestBearerAuthMiddleware_MissingTokenRejected(t *testing.T) {
	mw := bearerAuthMiddleware(func() config.BearerAuth { return config.BearerAuth{Enabled: true, Token: "secret"} })
	h := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestBearerAuthMiddleware_WrongTokenRejected(t *testing.T) {
	mw := bearerAuthMiddleware(func() config.BearerAuth { return config.BearerAuth{Enabled: true, Token: "secret"} })
	h := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestBearerAuthMiddleware_CorrectTokenAccepted(t *testing.T) {
	mw := bearerAuthMiddleware(func() config.BearerAuth { return config.BearerAuth{Enabled: true, Token: "secret"} })
	h := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
