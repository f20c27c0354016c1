package catalog

// mergeMeta overlays non-zero fields of overlay onto base. Tags is an array
// field: present (non-nil) on overlay replaces base wholesale, it is never
// appended to.
func mergeMeta(base, overlay *RawMeta) *RawMeta {
	if overlay == nil {
		return base
	}
	if base == nil {
		cp := *overlay
		return &cp
	}
	out := *base
	if overlay.OwnedBy != "" {
		out.OwnedBy = overlay.OwnedBy
	}
	if overlay.Created != 0 {
		out.Created = overlay.Created
	}
	if overlay.Description != "" {
		out.Description = overlay.Description
	}
	if overlay.Tags != nil {
		out.Tags = overlay.Tags
	}
	return &out
}

func mergeStaticBody(base, overlay *RawStaticBody) *RawStaticBody {
	if overlay == nil {
		return base
	}
	if base == nil {
		cp := *overlay
		return &cp
	}
	out := *base
	if overlay.Pick != "" {
		out.Pick = overlay.Pick
	}
	if overlay.StreamChunkChars != 0 {
		out.StreamChunkChars = overlay.StreamChunkChars
	}
	if overlay.Rules != nil {
		out.Rules = overlay.Rules
	}
	return &out
}

func mergeScriptBody(base, overlay *RawScriptBody) *RawScriptBody {
	if overlay == nil {
		return base
	}
	if base == nil {
		cp := *overlay
		return &cp
	}
	out := *base
	if overlay.File != "" {
		out.File = overlay.File
	}
	if overlay.InitFile != "" {
		out.InitFile = overlay.InitFile
	}
	if overlay.TimeoutMS != 0 {
		out.TimeoutMS = overlay.TimeoutMS
	}
	if overlay.StreamChunkChars != 0 {
		out.StreamChunkChars = overlay.StreamChunkChars
	}
	return &out
}

func mergeInteractiveBody(base, overlay *RawInteractiveBody) *RawInteractiveBody {
	if overlay == nil {
		return base
	}
	if base == nil {
		cp := *overlay
		return &cp
	}
	out := *base
	if overlay.FallbackText != "" {
		out.FallbackText = overlay.FallbackText
	}
	if overlay.FakeReasoning != "" {
		out.FakeReasoning = overlay.FakeReasoning
	}
	if overlay.TimeoutMS != 0 {
		out.TimeoutMS = overlay.TimeoutMS
	}
	if overlay.StreamChunkChars != 0 {
		out.StreamChunkChars = overlay.StreamChunkChars
	}
	return &out
}

// mergedBody is the accumulator template expansion folds over: whichever of
// Static/Script/Interactive templates in the extends chain contributed.
// The model's own Kind decides, after folding, which single section survives
// into the resolved Model.
type mergedBody struct {
	Meta        *RawMeta
	Static      *RawStaticBody
	Script      *RawScriptBody
	Interactive *RawInteractiveBody
}

func (m mergedBody) overlayWith(meta *RawMeta, static *RawStaticBody, script *RawScriptBody, inter *RawInteractiveBody) mergedBody {
	return mergedBody{
		Meta:        mergeMeta(m.Meta, meta),
		Static:      mergeStaticBody(m.Static, static),
		Script:      mergeScriptBody(m.Script, script),
		Interactive: mergeInteractiveBody(m.Interactive, inter),
	}
}
