package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rakunlabs/mockllm/internal/apierr"
)

// scriptPath validates name against path traversal and returns its
// absolute path under the scripts directory. Script names come from the
// URL path, so a name like "../../etc/passwd" must never resolve outside
// scriptsDir.
func (s *Server) scriptPath(name string) (string, bool) {
	if name == "" || strings.ContainsRune(name, '/') || strings.ContainsRune(name, '\\') || name == "." || name == ".." {
		return "", false
	}
	return filepath.Join(s.scriptsDir(), name), true
}

// ListScripts handles GET /scripts: the filenames under the scripts
// directory, sorted for a stable listing.
func (s *Server) ListScripts(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.scriptsDir())
	if err != nil {
		if os.IsNotExist(err) {
			httpResponseJSON(w, []string{}, http.StatusOK)
			return
		}
		httpAPIError(w, apierr.New(apierr.Internal, "read scripts dir: %v", err))
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	httpResponseJSON(w, names, http.StatusOK)
}

// GetScript handles GET /scripts/{name}: the raw script source.
func (s *Server) GetScript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, ok := s.scriptPath(name)
	if !ok {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid script name %q", name))
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			httpAPIError(w, apierr.New(apierr.BadRequest, "script %q not found", name))
			return
		}
		httpAPIError(w, apierr.New(apierr.Internal, "read script %q: %v", name, err))
		return
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// PutScript handles PUT /scripts/{name}: writes (creating or overwriting)
// the script's source.
func (s *Server) PutScript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, ok := s.scriptPath(name)
	if !ok {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid script name %q", name))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "read request body: %v", err))
		return
	}

	if err := os.MkdirAll(s.scriptsDir(), 0o755); err != nil {
		httpAPIError(w, apierr.New(apierr.Internal, "create scripts dir: %v", err))
		return
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		httpAPIError(w, apierr.New(apierr.Internal, "write script %q: %v", name, err))
		return
	}
	s.maybeAutoCommit("scripts: update " + name)

	httpResponse(w, "script saved", http.StatusOK)
}

// DeleteScript handles DELETE /scripts/{name}.
func (s *Server) DeleteScript(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, ok := s.scriptPath(name)
	if !ok {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid script name %q", name))
		return
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			httpAPIError(w, apierr.New(apierr.BadRequest, "script %q not found", name))
			return
		}
		httpAPIError(w, apierr.New(apierr.Internal, "delete script %q: %v", name, err))
		return
	}
	s.maybeAutoCommit("scripts: delete " + name)

	httpResponse(w, "script deleted", http.StatusOK)
}
