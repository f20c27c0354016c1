// Package router resolves an incoming chat-completion "model" field to a
// concrete, enabled backend model, applying alias load-balancing across
// providers. Grounded on the teacher's parseModelID/getProviderInfo
// resolution chain in internal/server/gateway.go, generalized from
// provider-key-plus-model-name splitting to the spec's alias/concrete-model
// table lookup.
package router

import (
	"math/rand"

	"github.com/rakunlabs/mockllm/internal/apierr"
	"github.com/rakunlabs/mockllm/internal/snapshot"
)

// Resolve maps requestedModel (or snap's default_model when empty) to a
// concrete, enabled *snapshot.Model, applying the alias's pick strategy if
// requestedModel names an alias. The returned id is the backend model id
// actually selected — callers surface it as the wire "model" field.
func Resolve(snap *snapshot.Snapshot, requestedModel string) (id string, model *snapshot.Model, err *apierr.Error) {
	name := requestedModel
	if name == "" {
		name = snap.DefaultModel
	}
	if name == "" {
		return "", nil, apierr.New(apierr.ModelNotFound, "no model specified and no default_model configured")
	}

	if alias, ok := snap.Alias(name); ok {
		return resolveAlias(snap, alias)
	}

	if m, ok := snap.Model(name); ok && m.Enabled {
		return m.ID, m, nil
	}

	return "", nil, apierr.New(apierr.ModelNotFound, "model %q not found", name)
}

func resolveAlias(snap *snapshot.Snapshot, alias *snapshot.Alias) (string, *snapshot.Model, *apierr.Error) {
	if alias.Disabled {
		return "", nil, apierr.New(apierr.ModelNotFound, "alias %q is disabled", alias.Name)
	}

	live := make([]*snapshot.Model, 0, len(alias.Providers))
	for _, p := range alias.Providers {
		if m, ok := snap.Model(p); ok && m.Enabled {
			live = append(live, m)
		}
	}
	if len(live) == 0 {
		return "", nil, apierr.New(apierr.ModelNotFound, "alias %q has no enabled providers", alias.Name)
	}

	var picked *snapshot.Model
	switch alias.Strategy {
	case snapshot.PickRandom:
		picked = live[rand.Intn(len(live))]
	default: // round_robin
		idx := alias.Counter().Add(1) - 1
		picked = live[idx%uint64(len(live))]
	}
	return picked.ID, picked, nil
}

// ModelInfo is one row of the public catalog surface: GET /v1/models and
// the admin /models bundle both build on this.
type ModelInfo struct {
	ID      string
	OwnedBy string
	Created int64
}

// ListModels returns the union of enabled concrete models and enabled
// aliases, per spec.md's own Open Question resolution ("disabled aliases
// are hidden"). Disabled concrete models are hidden for the same reason:
// they are, from the client's perspective, not servable.
func ListModels(snap *snapshot.Snapshot) []ModelInfo {
	out := make([]ModelInfo, 0, len(snap.Models())+len(snap.Aliases()))
	for _, m := range snap.Models() {
		if !m.Enabled {
			continue
		}
		out = append(out, ModelInfo{ID: m.ID, OwnedBy: m.Meta.OwnedBy, Created: m.Meta.Created})
	}
	for _, a := range snap.Aliases() {
		if a.Disabled {
			continue
		}
		out = append(out, ModelInfo{ID: a.Name, OwnedBy: a.OwnedBy})
	}
	return out
}
