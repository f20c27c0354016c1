package catalog

import (
	"strings"

	"github.com/rakunlabs/mockllm/internal/snapshot"
)

// Resolve expands templates, injects defaults, validates invariants I1-I5
// plus rule-shape and regex-flag rules, and produces a frozen snapshot. It
// never mutates its inputs and never touches disk; internal/config is
// responsible for reading the on-disk layout into RawCatalog/RawModel
// values first.
//
// All validation failures are collected and returned together; a non-empty
// error slice means the snapshot is nil and the caller (the reload
// controller) must keep serving its previous snapshot.
func Resolve(generation uint64, cat RawCatalog, models []RawModel, resp snapshot.ResponseConfig) (*snapshot.Snapshot, []error) {
	var errs []error

	tr := newTemplateResolver(cat.Templates)
	disabled := make(map[string]bool, len(cat.DisabledModels))
	for _, id := range cat.DisabledModels {
		disabled[id] = true
	}

	resolvedModels := make(map[string]*snapshot.Model, len(models))
	seenIDs := make(map[string]bool, len(models))

	for _, rm := range models {
		if rm.ID == "" {
			errs = append(errs, newErr("<unnamed>", "model id is empty"))
			continue
		}
		if seenIDs[rm.ID] {
			errs = append(errs, newErr(rm.ID, "duplicate model id"))
			continue
		}
		seenIDs[rm.ID] = true

		if rm.FileStem != "" && rm.FileStem != rm.ID {
			errs = append(errs, newErr(rm.ID, "file stem %q does not match id (I4)", rm.FileStem))
		}

		m, modelErrs := resolveModel(tr, cat.Defaults, rm, !disabled[rm.ID])
		errs = append(errs, modelErrs...)
		if m != nil {
			resolvedModels[rm.ID] = m
		}
	}

	resolvedAliases := make(map[string]*snapshot.Alias, len(cat.Aliases))
	for _, ra := range cat.Aliases {
		if ra.Name == "" {
			errs = append(errs, newErr("<unnamed>", "alias name is empty"))
			continue
		}
		if seenIDs[ra.Name] {
			errs = append(errs, newErr(ra.Name, "alias name collides with a model id"))
			continue
		}
		if _, dup := resolvedAliases[ra.Name]; dup {
			errs = append(errs, newErr(ra.Name, "duplicate alias name"))
			continue
		}

		strategy := snapshot.PickStrategy(ra.Strategy)
		if strategy == "" {
			strategy = snapshot.PickRoundRobin
		}
		if strategy != snapshot.PickRoundRobin && strategy != snapshot.PickRandom {
			errs = append(errs, newErr(ra.Name, "alias strategy %q must be round_robin or random", ra.Strategy))
		}

		resolvedAliases[ra.Name] = &snapshot.Alias{
			Name:      ra.Name,
			OwnedBy:   ra.OwnedBy,
			Strategy:  strategy,
			Providers: ra.Providers,
			Disabled:  ra.Disabled,
		}
	}

	// I1: every alias provider resolves to an enabled concrete model id.
	for _, a := range resolvedAliases {
		if a.Disabled {
			continue
		}
		for _, p := range a.Providers {
			m, ok := resolvedModels[p]
			if !ok || !m.Enabled {
				errs = append(errs, newErr(a.Name, "provider %q does not resolve to an enabled model (I1)", p))
			}
		}
	}

	// I5: default_model, if set, resolves to an enabled model or an alias
	// with at least one enabled provider.
	if cat.DefaultModel != "" {
		if m, ok := resolvedModels[cat.DefaultModel]; ok {
			if !m.Enabled {
				errs = append(errs, newErr(cat.DefaultModel, "default_model resolves to a disabled model (I5)"))
			}
		} else if a, ok := resolvedAliases[cat.DefaultModel]; ok {
			if a.Disabled || !aliasHasEnabledProvider(a, resolvedModels) {
				errs = append(errs, newErr(cat.DefaultModel, "default_model alias has no enabled provider (I5)"))
			}
		} else {
			errs = append(errs, newErr(cat.DefaultModel, "default_model does not resolve to any model or alias (I5)"))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return snapshot.NewSnapshot(generation, cat.DefaultModel, resp, resolvedModels, resolvedAliases), nil
}

func aliasHasEnabledProvider(a *snapshot.Alias, models map[string]*snapshot.Model) bool {
	for _, p := range a.Providers {
		if m, ok := models[p]; ok && m.Enabled {
			return true
		}
	}
	return false
}

func resolveModel(tr *templateResolver, defaults RawDefaults, rm RawModel, enabled bool) (*snapshot.Model, []error) {
	var errs []error

	kind := snapshot.Kind(rm.Kind)
	switch kind {
	case snapshot.KindStatic, snapshot.KindScript, snapshot.KindInteractive:
	default:
		errs = append(errs, newErr(rm.ID, "unknown kind %q", rm.Kind))
		return nil, errs
	}

	body, err := tr.resolveChain(rm.Extends, nil)
	if err != nil {
		errs = append(errs, err)
		return nil, errs
	}
	body = body.overlayWith(rm.Meta, rm.Static, rm.Script, rm.Interactive)

	meta := applyMetaDefaults(body.Meta, defaults)

	m := &snapshot.Model{
		ID:      rm.ID,
		Kind:    kind,
		Meta:    meta,
		Enabled: enabled,
	}

	switch kind {
	case snapshot.KindStatic:
		sb, sErrs := resolveStaticBody(rm.ID, body.Static, defaults.Static)
		errs = append(errs, sErrs...)
		m.Static = sb
	case snapshot.KindScript:
		scb, scErrs := resolveScriptBody(rm.ID, body.Script, defaults.Script)
		errs = append(errs, scErrs...)
		m.Script = scb
	case snapshot.KindInteractive:
		ib, iErrs := resolveInteractiveBody(rm.ID, body.Interactive, defaults.Interactive)
		errs = append(errs, iErrs...)
		m.Inter = ib
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return m, nil
}

func applyMetaDefaults(meta *RawMeta, defaults RawDefaults) snapshot.Meta {
	out := snapshot.Meta{}
	if meta != nil {
		out.OwnedBy = meta.OwnedBy
		out.Created = meta.Created
		out.Description = meta.Description
		out.Tags = meta.Tags
	}
	if out.OwnedBy == "" {
		out.OwnedBy = defaults.OwnedBy
	}
	return out
}

func resolveStaticBody(id string, raw *RawStaticBody, def RawStaticDefaults) (*snapshot.StaticBody, []error) {
	var errs []error
	if raw == nil {
		errs = append(errs, newErr(id, "kind is static but no static body is configured"))
		return nil, errs
	}

	pick := snapshot.PickStrategy(raw.Pick)
	if pick == "" {
		pick = snapshot.PickRoundRobin
	}
	if !validPick(pick) {
		errs = append(errs, newErr(id, "static.pick %q is not one of round_robin|random|weighted", raw.Pick))
	}

	chunk := raw.StreamChunkChars
	if chunk == 0 {
		chunk = def.StreamChunkChars
	}
	if chunk == 0 {
		chunk = 1
	}
	if chunk < 1 {
		errs = append(errs, newErr(id, "static.stream_chunk_chars must be >= 1"))
	}

	if len(raw.Rules) == 0 {
		errs = append(errs, newErr(id, "static.rules must be non-empty"))
		return nil, errs
	}

	rules := make([]snapshot.Rule, 0, len(raw.Rules))
	defaultCount := 0
	for i, rr := range raw.Rules {
		r, rErrs := resolveRule(id, i, rr)
		errs = append(errs, rErrs...)
		if rr.Default {
			defaultCount++
		}
		rules = append(rules, r)
	}
	if defaultCount != 1 {
		errs = append(errs, newErr(id, "static model must have exactly one default rule, found %d (I2)", defaultCount))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &snapshot.StaticBody{Pick: pick, StreamChunkChars: chunk, Rules: rules}, nil
}

func resolveRule(modelID string, index int, rr RawRule) (snapshot.Rule, []error) {
	var errs []error
	r := snapshot.Rule{Default: rr.Default}

	if rr.Pick != "" {
		p := snapshot.PickStrategy(rr.Pick)
		if !validPick(p) {
			errs = append(errs, newErr(modelID, "rule[%d].pick %q invalid", index, rr.Pick))
		}
		r.Pick = p
	}

	if rr.Default && rr.When != nil && !rr.When.isEmpty() {
		errs = append(errs, newErr(modelID, "rule[%d] is the default rule and must not have a when clause (I2)", index))
	}
	if !rr.Default && (rr.When == nil || rr.When.isEmpty()) {
		errs = append(errs, newErr(modelID, "rule[%d] is not the default rule and must have a non-empty when clause (I3)", index))
	}

	if rr.When != nil {
		cg, cgErrs := resolveConditionGroup(modelID, index, *rr.When)
		errs = append(errs, cgErrs...)
		r.When = cg
	}

	if len(rr.Replies) == 0 {
		errs = append(errs, newErr(modelID, "rule[%d].replies must be non-empty", index))
	}
	for _, rep := range rr.Replies {
		w := rep.Weight
		if w <= 0 {
			w = 1
		}
		r.Replies = append(r.Replies, snapshot.Reply{Content: rep.Content, Reasoning: rep.Reasoning, Weight: w})
	}

	return r, errs
}

func (g RawConditionGroup) isEmpty() bool {
	return len(g.Any) == 0 && len(g.All) == 0 && len(g.None) == 0
}

func resolveConditionGroup(modelID string, ruleIndex int, raw RawConditionGroup) (snapshot.ConditionGroup, []error) {
	var errs []error
	conv := func(list []RawCondition) []snapshot.Condition {
		out := make([]snapshot.Condition, 0, len(list))
		for i, c := range list {
			cond, cErrs := resolveCondition(modelID, ruleIndex, i, c)
			errs = append(errs, cErrs...)
			out = append(out, cond)
		}
		return out
	}
	return snapshot.ConditionGroup{
		Any:  conv(raw.Any),
		All:  conv(raw.All),
		None: conv(raw.None),
	}, errs
}

func resolveCondition(modelID string, ruleIndex, condIndex int, c RawCondition) (snapshot.Condition, []error) {
	var errs []error
	set := 0
	if c.Contains != nil {
		set++
	}
	if c.Equals != nil {
		set++
	}
	if c.StartsWith != nil {
		set++
	}
	if c.EndsWith != nil {
		set++
	}
	if c.Regex != nil {
		set++
	}
	if set != 1 {
		errs = append(errs, newErr(modelID, "rule[%d].when condition[%d] must set exactly one of contains|equals|starts_with|ends_with|regex, found %d", ruleIndex, condIndex, set))
	}

	caseMode := snapshot.CaseSensitivity(c.Case)
	if caseMode == "" {
		caseMode = snapshot.CaseSensitive
	}
	if caseMode != snapshot.CaseSensitive && caseMode != snapshot.CaseInsensitive {
		errs = append(errs, newErr(modelID, "rule[%d].when condition[%d] case %q invalid", ruleIndex, condIndex, c.Case))
	}

	out := snapshot.Condition{
		Contains:   c.Contains,
		Equals:     c.Equals,
		StartsWith: c.StartsWith,
		EndsWith:   c.EndsWith,
		Case:       caseMode,
	}
	if c.Regex != nil {
		pattern, compiled, err := compileRegexLiteral(*c.Regex)
		if err != nil {
			errs = append(errs, newErr(modelID, "rule[%d].when condition[%d]: %v", ruleIndex, condIndex, err))
		} else {
			out.Regex = &pattern
			out.Compiled = compiled
		}
	}
	return out, errs
}

func validPick(p snapshot.PickStrategy) bool {
	switch p {
	case snapshot.PickRoundRobin, snapshot.PickRandom, snapshot.PickWeighted:
		return true
	}
	return false
}

func resolveScriptBody(id string, raw *RawScriptBody, def RawScriptDefaults) (*snapshot.ScriptBody, []error) {
	var errs []error
	if raw == nil {
		errs = append(errs, newErr(id, "kind is script but no script body is configured"))
		return nil, errs
	}
	if strings.TrimSpace(raw.File) == "" {
		errs = append(errs, newErr(id, "script.file is required"))
	}

	timeout := raw.TimeoutMS
	if timeout == 0 {
		timeout = def.TimeoutMS
	}
	if timeout < 1 {
		errs = append(errs, newErr(id, "script.timeout_ms must be >= 1"))
	}

	chunk := raw.StreamChunkChars
	if chunk == 0 {
		chunk = def.StreamChunkChars
	}
	if chunk < 1 {
		errs = append(errs, newErr(id, "script.stream_chunk_chars must be >= 1"))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &snapshot.ScriptBody{
		File:             raw.File,
		InitFile:         raw.InitFile,
		TimeoutMS:        timeout,
		StreamChunkChars: chunk,
	}, nil
}

func resolveInteractiveBody(id string, raw *RawInteractiveBody, def RawInteractiveDefaults) (*snapshot.InteractiveBody, []error) {
	var errs []error
	if raw == nil {
		raw = &RawInteractiveBody{}
	}

	fallback := raw.FallbackText
	if fallback == "" {
		fallback = def.FallbackText
	}
	if strings.TrimSpace(fallback) == "" {
		errs = append(errs, newErr(id, "interactive.fallback_text is required and must be non-empty"))
	}

	fakeReasoning := raw.FakeReasoning
	if fakeReasoning == "" {
		fakeReasoning = def.FakeReasoning
	}

	timeout := raw.TimeoutMS
	if timeout == 0 {
		timeout = def.TimeoutMS
	}

	chunk := raw.StreamChunkChars
	if chunk == 0 {
		chunk = def.StreamChunkChars
	}
	if chunk < 1 {
		chunk = 1
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &snapshot.InteractiveBody{
		FallbackText:     fallback,
		FakeReasoning:    fakeReasoning,
		TimeoutMS:        timeout,
		StreamChunkChars: chunk,
	}, nil
}
