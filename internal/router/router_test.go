package router

import (
	"testing"

	"github.com/rakunlabs/mockllm/internal/snapshot"
)

func buildSnap(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	models := map[string]*snapshot.Model{
		"flash": {ID: "flash", Kind: snapshot.KindStatic, Enabled: true},
		"pro":   {ID: "pro", Kind: snapshot.KindStatic, Enabled: true},
		"dead":  {ID: "dead", Kind: snapshot.KindStatic, Enabled: false},
	}
	aliases := map[string]*snapshot.Alias{
		"proxy": {Name: "proxy", Strategy: snapshot.PickRoundRobin, Providers: []string{"flash", "pro"}},
	}
	return snapshot.NewSnapshot(1, "flash", snapshot.ResponseConfig{}, models, aliases)
}

func TestResolve_ConcreteModel(t *testing.T) {
	snap := buildSnap(t)
	id, m, err := Resolve(snap, "flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "flash" || m.ID != "flash" {
		t.Errorf("got id=%q model=%+v", id, m)
	}
}

func TestResolve_EmptyUsesDefaultModel(t *testing.T) {
	snap := buildSnap(t)
	id, _, err := Resolve(snap, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "flash" {
		t.Errorf("id = %q, want default_model flash", id)
	}
}

func TestResolve_DisabledModelNotFound(t *testing.T) {
	snap := buildSnap(t)
	_, _, err := Resolve(snap, "dead")
	if err == nil || err.Kind != "model_not_found" {
		t.Fatalf("expected model_not_found, got %v", err)
	}
}

func TestResolve_UnknownModelNotFound(t *testing.T) {
	snap := buildSnap(t)
	_, _, err := Resolve(snap, "nope")
	if err == nil || err.Kind != "model_not_found" {
		t.Fatalf("expected model_not_found, got %v", err)
	}
}

func TestResolve_AliasRoundRobinScenario4(t *testing.T) {
	snap := buildSnap(t)
	want := []string{"flash", "pro", "flash", "pro"}
	for i, w := range want {
		id, _, err := Resolve(snap, "proxy")
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if id != w {
			t.Errorf("request %d: got %q, want %q", i, id, w)
		}
	}
}

func TestResolve_DisabledAliasNotFound(t *testing.T) {
	snap := buildSnap(t)
	a, _ := snap.Alias("proxy")
	a.Disabled = true
	_, _, err := Resolve(snap, "proxy")
	if err == nil || err.Kind != "model_not_found" {
		t.Fatalf("expected model_not_found for disabled alias, got %v", err)
	}
}

func TestListModels_HidesDisabled(t *testing.T) {
	snap := buildSnap(t)
	list := ListModels(snap)
	for _, mi := range list {
		if mi.ID == "dead" {
			t.Error("disabled model should not appear in ListModels")
		}
	}
	found := map[string]bool{}
	for _, mi := range list {
		found[mi.ID] = true
	}
	if !found["flash"] || !found["pro"] || !found["proxy"] {
		t.Errorf("expected flash, pro, proxy in list, got %+v", list)
	}
}
