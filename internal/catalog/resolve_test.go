package catalog

import (
	"testing"

	"github.com/rakunlabs/mockllm/internal/snapshot"
)

func strp(s string) *string { return &s }

func TestResolve_SimpleStaticModel(t *testing.T) {
	cat := RawCatalog{Schema: 2}
	models := []RawModel{
		{
			ID: "echo", Kind: "static", FileStem: "echo",
			Static: &RawStaticBody{
				Pick:             "round_robin",
				StreamChunkChars: 8,
				Rules: []RawRule{
					{Default: true, Replies: []RawReply{{Content: "bye"}}},
				},
			},
		},
	}

	snap, errs := Resolve(1, cat, models, snapshot.ResponseConfig{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	m, ok := snap.Model("echo")
	if !ok {
		t.Fatal("expected model echo to resolve")
	}
	if m.Static == nil || len(m.Static.Rules) != 1 {
		t.Fatalf("unexpected static body: %+v", m.Static)
	}
}

func TestResolve_TemplateExtendsDeepMerge(t *testing.T) {
	cat := RawCatalog{
		Templates: []RawTemplate{
			{
				Name: "base",
				Meta: &RawMeta{OwnedBy: "acme", Tags: []string{"a", "b"}},
				Static: &RawStaticBody{
					Pick: "random",
					Rules: []RawRule{
						{Default: true, Replies: []RawReply{{Content: "base-default"}}},
					},
				},
			},
		},
	}
	models := []RawModel{
		{
			ID: "derived", Kind: "static", FileStem: "derived",
			Extends: []string{"base"},
			Meta:    &RawMeta{Tags: []string{"c"}}, // overrides tags wholesale, keeps owned_by
			Static: &RawStaticBody{
				StreamChunkChars: 16,
				Rules: []RawRule{
					{Default: true, Replies: []RawReply{{Content: "derived-default"}}},
				},
			},
		},
	}

	snap, errs := Resolve(1, cat, models, snapshot.ResponseConfig{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	m, _ := snap.Model("derived")
	if m.Meta.OwnedBy != "acme" {
		t.Errorf("OwnedBy = %q, want inherited %q", m.Meta.OwnedBy, "acme")
	}
	if len(m.Meta.Tags) != 1 || m.Meta.Tags[0] != "c" {
		t.Errorf("Tags = %v, want replaced with [c]", m.Meta.Tags)
	}
	if m.Static.Pick != snapshot.PickRandom {
		t.Errorf("Pick = %q, want inherited random", m.Static.Pick)
	}
	if m.Static.StreamChunkChars != 16 {
		t.Errorf("StreamChunkChars = %d, want overlay's 16", m.Static.StreamChunkChars)
	}
	if m.Static.Rules[0].Replies[0].Content != "derived-default" {
		t.Errorf("rules array was merged instead of replaced: %+v", m.Static.Rules)
	}
}

func TestResolve_ExtendsCycleFails(t *testing.T) {
	cat := RawCatalog{
		Templates: []RawTemplate{
			{Name: "a", Extends: []string{"b"}},
			{Name: "b", Extends: []string{"a"}},
		},
	}
	models := []RawModel{
		{ID: "m", Kind: "static", FileStem: "m", Extends: []string{"a"},
			Static: &RawStaticBody{Rules: []RawRule{{Default: true, Replies: []RawReply{{Content: "x"}}}}}},
	}
	_, errs := Resolve(1, cat, models, snapshot.ResponseConfig{})
	if len(errs) == 0 {
		t.Fatal("expected a cycle error")
	}
}

func TestResolve_DefaultInjectionDoesNotOverrideExplicit(t *testing.T) {
	cat := RawCatalog{
		Defaults: RawDefaults{Script: RawScriptDefaults{TimeoutMS: 1000, StreamChunkChars: 4}},
	}
	models := []RawModel{
		{ID: "s1", Kind: "script", FileStem: "s1", Script: &RawScriptBody{File: "a.js"}},
		{ID: "s2", Kind: "script", FileStem: "s2", Script: &RawScriptBody{File: "b.js", TimeoutMS: 50}},
	}
	snap, errs := Resolve(1, cat, models, snapshot.ResponseConfig{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	s1, _ := snap.Model("s1")
	if s1.Script.TimeoutMS != 1000 {
		t.Errorf("s1 TimeoutMS = %d, want default 1000", s1.Script.TimeoutMS)
	}
	s2, _ := snap.Model("s2")
	if s2.Script.TimeoutMS != 50 {
		t.Errorf("s2 TimeoutMS = %d, want explicit 50 kept over default", s2.Script.TimeoutMS)
	}
}

func TestResolve_I2MissingDefaultRuleFails(t *testing.T) {
	models := []RawModel{
		{ID: "m", Kind: "static", FileStem: "m", Static: &RawStaticBody{
			Rules: []RawRule{{When: &RawConditionGroup{Any: []RawCondition{{Equals: strp("x")}}}, Replies: []RawReply{{Content: "y"}}}},
		}},
	}
	_, errs := Resolve(1, RawCatalog{}, models, snapshot.ResponseConfig{})
	if len(errs) == 0 {
		t.Fatal("expected I2 violation error")
	}
}

func TestResolve_I3NonDefaultNeedsConditionFails(t *testing.T) {
	models := []RawModel{
		{ID: "m", Kind: "static", FileStem: "m", Static: &RawStaticBody{
			Rules: []RawRule{
				{Replies: []RawReply{{Content: "no-condition"}}},
				{Default: true, Replies: []RawReply{{Content: "default"}}},
			},
		}},
	}
	_, errs := Resolve(1, RawCatalog{}, models, snapshot.ResponseConfig{})
	if len(errs) == 0 {
		t.Fatal("expected I3 violation error")
	}
}

func TestResolve_I4FileStemMismatchFails(t *testing.T) {
	models := []RawModel{
		{ID: "real-id", Kind: "static", FileStem: "wrong-stem", Static: &RawStaticBody{
			Rules: []RawRule{{Default: true, Replies: []RawReply{{Content: "x"}}}},
		}},
	}
	_, errs := Resolve(1, RawCatalog{}, models, snapshot.ResponseConfig{})
	if len(errs) == 0 {
		t.Fatal("expected I4 violation error")
	}
}

func TestResolve_I1AliasProviderMustResolve(t *testing.T) {
	cat := RawCatalog{Aliases: []RawAlias{{Name: "proxy", Providers: []string{"missing-model"}}}}
	_, errs := Resolve(1, cat, nil, snapshot.ResponseConfig{})
	if len(errs) == 0 {
		t.Fatal("expected I1 violation error")
	}
}

func TestResolve_I5DefaultModelMustResolve(t *testing.T) {
	cat := RawCatalog{DefaultModel: "nope"}
	_, errs := Resolve(1, cat, nil, snapshot.ResponseConfig{})
	if len(errs) == 0 {
		t.Fatal("expected I5 violation error")
	}
}

func TestResolve_RegexFlagRestriction(t *testing.T) {
	models := []RawModel{
		{ID: "m", Kind: "static", FileStem: "m", Static: &RawStaticBody{
			Rules: []RawRule{
				{When: &RawConditionGroup{Any: []RawCondition{{Regex: strp("/time|date/gi")}}}, Replies: []RawReply{{Content: "x"}}},
				{Default: true, Replies: []RawReply{{Content: "default"}}},
			},
		}},
	}
	_, errs := Resolve(1, RawCatalog{}, models, snapshot.ResponseConfig{})
	if len(errs) == 0 {
		t.Fatal("expected regex flag restriction error for 'g' flag")
	}
}

func TestResolve_RegexInsensitiveFoldsToInlineFlag(t *testing.T) {
	models := []RawModel{
		{ID: "m", Kind: "static", FileStem: "m", Static: &RawStaticBody{
			Rules: []RawRule{
				{When: &RawConditionGroup{Any: []RawCondition{{Regex: strp("/time|date/i")}}}, Replies: []RawReply{{Content: "x"}}},
				{Default: true, Replies: []RawReply{{Content: "default"}}},
			},
		}},
	}
	snap, errs := Resolve(1, RawCatalog{}, models, snapshot.ResponseConfig{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	m, _ := snap.Model("m")
	got := *m.Static.Rules[0].When.Any[0].Regex
	want := "(?i)time|date"
	if got != want {
		t.Errorf("pattern = %q, want %q", got, want)
	}
}

func TestResolve_AliasRoundRobinScenario(t *testing.T) {
	// Scenario 4 setup: alias "proxy" providers=[flash, pro].
	models := []RawModel{
		{ID: "flash", Kind: "static", FileStem: "flash", Static: &RawStaticBody{
			Rules: []RawRule{{Default: true, Replies: []RawReply{{Content: "f"}}}},
		}},
		{ID: "pro", Kind: "static", FileStem: "pro", Static: &RawStaticBody{
			Rules: []RawRule{{Default: true, Replies: []RawReply{{Content: "p"}}}},
		}},
	}
	cat := RawCatalog{Aliases: []RawAlias{{Name: "proxy", Strategy: "round_robin", Providers: []string{"flash", "pro"}}}}
	snap, errs := Resolve(1, cat, models, snapshot.ResponseConfig{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	a, ok := snap.Alias("proxy")
	if !ok {
		t.Fatal("expected alias proxy")
	}
	if len(a.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(a.Providers))
	}
}
