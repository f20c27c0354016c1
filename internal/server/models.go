package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rakunlabs/mockllm/internal/apierr"
	"github.com/rakunlabs/mockllm/internal/catalog"
	"github.com/rakunlabs/mockllm/internal/config"
)

// modelsBundle is the {catalog, models[]} full-layout view GET/PUT /models
// exchanges, per spec.md §6.
type modelsBundle struct {
	Catalog catalog.RawCatalog `json:"catalog" yaml:"catalog"`
	Models  []catalog.RawModel `json:"models" yaml:"models"`
}

func wantsYAML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "yaml")
}

// GetModelsBundle handles GET /models: the full on-disk layout, encoded as
// JSON or YAML depending on the request's Accept header.
func (s *Server) GetModelsBundle(w http.ResponseWriter, r *http.Request) {
	cat, models, err := config.ReadLayout(s.cfg.ConfigDir)
	if err != nil {
		httpAPIError(w, apierr.New(apierr.Internal, "read model layout: %v", err))
		return
	}
	bundle := modelsBundle{Catalog: cat, Models: models}

	if wantsYAML(r) {
		data, err := yaml.Marshal(bundle)
		if err != nil {
			httpAPIError(w, apierr.New(apierr.Internal, "marshal model bundle: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	httpResponseJSON(w, bundle, http.StatusOK)
}

// PutModelsBundle handles PUT /models: a full replacement of the catalog
// and every model file, accepting either JSON or YAML per Content-Type,
// then triggering a reload so the replacement is validated and, if valid,
// served immediately. The reload is subject to the controller's debounce:
// inside the window it is skipped, the files stay written, and the
// response reports reloaded: false.
func (s *Server) PutModelsBundle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "read request body: %v", err))
		return
	}

	var bundle modelsBundle
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "yaml") {
		err = yaml.Unmarshal(body, &bundle)
	} else {
		err = json.Unmarshal(body, &bundle)
	}
	if err != nil {
		httpAPIError(w, apierr.New(apierr.BadRequest, "invalid request body: %v", err))
		return
	}

	if err := config.WriteLayout(s.cfg.ConfigDir, bundle.Catalog, bundle.Models); err != nil {
		httpAPIError(w, apierr.New(apierr.Internal, "write model layout: %v", err))
		return
	}
	s.maybeAutoCommit("models: full replacement")

	reloaded, errs := s.reload.Reload()
	if errs != nil {
		details := make([]string, 0, len(errs))
		for _, e := range errs {
			details = append(details, e.Error())
		}
		httpAPIError(w, apierr.NewWithDetails(apierr.ReloadFailed, "model bundle failed validation", details))
		return
	}
	httpResponseJSON(w, reloadResponse{Reloaded: reloaded}, http.StatusOK)
}
