package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rakunlabs/mockllm/internal/catalog"
	"github.com/rakunlabs/mockllm/internal/snapshot"
)

// readLayout reads dir/_catalog.yaml and every dir/models/*.yaml file into
// the plain decoded shapes internal/catalog.Resolve expects, so that YAML
// parsing never leaks into internal/catalog (per spec.md's boundary rule).
// internal/server also imports gopkg.in/yaml.v3, for the admin models
// bundle's YAML request and response bodies.
func readLayout(dir string) (catalog.RawCatalog, []catalog.RawModel, error) {
	var cat catalog.RawCatalog

	catalogPath := filepath.Join(dir, "_catalog.yaml")
	raw, err := os.ReadFile(catalogPath)
	if err != nil {
		return cat, nil, fmt.Errorf("read %s: %w", catalogPath, err)
	}
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return cat, nil, fmt.Errorf("parse %s: %w", catalogPath, err)
	}

	modelsDir := filepath.Join(dir, "models")
	entries, err := os.ReadDir(modelsDir)
	if err != nil {
		return cat, nil, fmt.Errorf("read models dir %s: %w", modelsDir, err)
	}

	models := make([]catalog.RawModel, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		modelPath := filepath.Join(modelsDir, name)
		raw, err := os.ReadFile(modelPath)
		if err != nil {
			return cat, nil, fmt.Errorf("read %s: %w", modelPath, err)
		}

		var rm catalog.RawModel
		if err := yaml.Unmarshal(raw, &rm); err != nil {
			return cat, nil, fmt.Errorf("parse %s: %w", modelPath, err)
		}
		rm.FileStem = strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")

		models = append(models, rm)
	}

	return cat, models, nil
}

// ReadLayout exposes readLayout to callers outside this package (the admin
// models bundle handler) that need the same decoded shape without forcing
// a reload.
func ReadLayout(dir string) (catalog.RawCatalog, []catalog.RawModel, error) {
	return readLayout(dir)
}

// WriteLayout replaces dir/_catalog.yaml and dir/models/*.yaml wholesale:
// every existing model file is removed first so a bundle PUT that drops a
// model actually removes it, then the catalog and each model are
// re-written. This is the only place outside readLayout that touches the
// on-disk layout's YAML files.
func WriteLayout(dir string, cat catalog.RawCatalog, models []catalog.RawModel) error {
	catalogPath := filepath.Join(dir, "_catalog.yaml")
	catBytes, err := yaml.Marshal(cat)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(catalogPath, catBytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", catalogPath, err)
	}

	modelsDir := filepath.Join(dir, "models")
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return fmt.Errorf("create models dir %s: %w", modelsDir, err)
	}

	existing, err := os.ReadDir(modelsDir)
	if err != nil {
		return fmt.Errorf("read models dir %s: %w", modelsDir, err)
	}
	for _, entry := range existing {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		if err := os.Remove(filepath.Join(modelsDir, name)); err != nil {
			return fmt.Errorf("remove stale model file %s: %w", name, err)
		}
	}

	for _, m := range models {
		m.FileStem = ""
		data, err := yaml.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal model %q: %w", m.ID, err)
		}
		path := filepath.Join(modelsDir, m.ID+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}

// Builder returns a reload.Builder closed over cfg, reading cfg.ConfigDir
// fresh on every call so each rebuild reflects whatever is on disk at
// rebuild time.
func Builder(cfg *Config) func(generation uint64) (*snapshot.Snapshot, []error) {
	return func(generation uint64) (*snapshot.Snapshot, []error) {
		cat, models, err := readLayout(cfg.ConfigDir)
		if err != nil {
			return nil, []error{err}
		}

		resp := snapshot.ResponseConfig{
			ReasoningMode:      cfg.Response.ReasoningMode,
			IncludeUsage:       cfg.Response.IncludeUsage,
			StreamFirstDelayMS: cfg.Response.StreamFirstDelayMS,
		}

		return catalog.Resolve(generation, cat, models, resp)
	}
}
