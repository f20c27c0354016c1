package server

import (
	"net/http"
	"strings"

	"github.com/rakunlabs/mockllm/internal/config"
)

// bearerAuthMiddleware mirrors the teacher's adminAuthMiddleware
// (internal/server/server.go) generalized to guard either /v1/* or /v0/*
// depending on which config.BearerAuth getAuth resolves to. getAuth is
// called per request (not captured once) so that PUT /config can change
// the auth gate of a running process without a restart.
func bearerAuthMiddleware(getAuth func() config.BearerAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := getAuth()
			if !auth.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httpResponse(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token != auth.Token {
				httpResponse(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
