// Package catalog turns the raw, boundary-decoded configuration documents
// (a catalog document, a set of per-model documents) into a resolved
// *snapshot.Snapshot: templates expanded, defaults injected, invariants
// checked. Nothing here touches a file or a YAML/JSON decoder; the Raw*
// types below exist only to be filled in by internal/config from disk and
// handed to Resolve.
package catalog

// RawCatalog is the decoded shape of models/_catalog.yaml.
type RawCatalog struct {
	Schema         int          `yaml:"schema"`
	DefaultModel   string       `yaml:"default_model"`
	Defaults       RawDefaults  `yaml:"defaults"`
	Aliases        []RawAlias   `yaml:"aliases"`
	Templates      []RawTemplate `yaml:"templates"`
	DisabledModels []string     `yaml:"disabled_models"`
}

// RawDefaults carries kind-scoped fallbacks applied to any model field left
// absent after template expansion.
type RawDefaults struct {
	OwnedBy     string                  `yaml:"owned_by"`
	Static      RawStaticDefaults       `yaml:"static"`
	Script      RawScriptDefaults       `yaml:"script"`
	Interactive RawInteractiveDefaults  `yaml:"interactive"`
}

type RawStaticDefaults struct {
	StreamChunkChars int `yaml:"stream_chunk_chars"`
}

type RawScriptDefaults struct {
	TimeoutMS        int `yaml:"timeout_ms"`
	StreamChunkChars int `yaml:"stream_chunk_chars"`
}

type RawInteractiveDefaults struct {
	TimeoutMS        int    `yaml:"timeout_ms"`
	StreamChunkChars int    `yaml:"stream_chunk_chars"`
	FakeReasoning    string `yaml:"fake_reasoning"`
	FallbackText     string `yaml:"fallback_text"`
}

// RawAlias is one entry of catalog.aliases.
type RawAlias struct {
	Name      string   `yaml:"name"`
	OwnedBy   string   `yaml:"owned_by"`
	Strategy  string   `yaml:"strategy"`
	Providers []string `yaml:"providers"`
	Disabled  bool     `yaml:"disabled"`
}

// RawTemplate is one entry of catalog.templates. Templates may themselves
// extend other templates; Resolve detects cycles across the whole chain.
type RawTemplate struct {
	Name        string           `yaml:"name"`
	Extends     []string         `yaml:"extends"`
	Meta        *RawMeta         `yaml:"meta"`
	Static      *RawStaticBody   `yaml:"static"`
	Script      *RawScriptBody   `yaml:"script"`
	Interactive *RawInteractiveBody `yaml:"interactive"`
}

// RawModel is the decoded shape of one models/<id>.yaml file. FileStem is
// set by the loader (internal/config), not decoded from the document body,
// and is compared against ID to check invariant I4.
type RawModel struct {
	Schema      int              `yaml:"schema"`
	ID          string           `yaml:"id"`
	Kind        string           `yaml:"kind"`
	Extends     []string         `yaml:"extends"`
	Meta        *RawMeta         `yaml:"meta"`
	Static      *RawStaticBody   `yaml:"static"`
	Script      *RawScriptBody   `yaml:"script"`
	Interactive *RawInteractiveBody `yaml:"interactive"`

	FileStem string `yaml:"-"`
}

type RawMeta struct {
	OwnedBy     string   `yaml:"owned_by"`
	Created     int64    `yaml:"created"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

type RawStaticBody struct {
	Pick             string    `yaml:"pick"`
	StreamChunkChars int       `yaml:"stream_chunk_chars"`
	Rules            []RawRule `yaml:"rules"`
}

type RawRule struct {
	Default bool               `yaml:"default"`
	Pick    string             `yaml:"pick"`
	When    *RawConditionGroup `yaml:"when"`
	Replies []RawReply         `yaml:"replies"`
}

type RawReply struct {
	Content   string `yaml:"content"`
	Reasoning string `yaml:"reasoning"`
	Weight    int    `yaml:"weight"`
}

type RawConditionGroup struct {
	Any  []RawCondition `yaml:"any"`
	All  []RawCondition `yaml:"all"`
	None []RawCondition `yaml:"none"`
}

type RawCondition struct {
	Contains   *string `yaml:"contains"`
	Equals     *string `yaml:"equals"`
	StartsWith *string `yaml:"starts_with"`
	EndsWith   *string `yaml:"ends_with"`
	Regex      *string `yaml:"regex"`
	Case       string  `yaml:"case"`
}

type RawScriptBody struct {
	File             string `yaml:"file"`
	InitFile         string `yaml:"init_file"`
	TimeoutMS        int    `yaml:"timeout_ms"`
	StreamChunkChars int    `yaml:"stream_chunk_chars"`
}

type RawInteractiveBody struct {
	FallbackText     string `yaml:"fallback_text"`
	FakeReasoning    string `yaml:"fake_reasoning"`
	TimeoutMS        int    `yaml:"timeout_ms"`
	StreamChunkChars int    `yaml:"stream_chunk_chars"`
}
