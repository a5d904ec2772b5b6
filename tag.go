package htmltags

// Asset type names accepted in tag declarations.
const (
	TypeCSS = "css"
	TypeJS  = "js"
)

// PathTransform rewrites an asset path using a runtime value: the build's
// public base path for public-path transforms, the build's content hash for
// hash transforms.
type PathTransform func(path, value string) string

// External marks a script as a module that must not be bundled and instead
// resolves at runtime to a global variable.
type External struct {
	PackageName  string
	VariableName string
}

// Tag declares one asset to inject. Entries in Options.Tags, Options.Links,
// and Options.Scripts may be a plain path string, a Tag, a *Tag, or a
// map[string]any with the same fields (the decoded form of a YAML mapping).
type Tag struct {
	// Path is the asset path. Required unless Glob and GlobPath are set,
	// in which case it is the base joined onto every glob match.
	Path string

	// Type is "css" or "js". Empty means infer from Path via the configured
	// extension lists; entries under Links or Scripts are bound to their
	// surface's type and may only state it redundantly.
	Type string

	// Append places the tag after the build's own assets of the same kind
	// (true) or before them (false). Nil inherits the option-level default.
	Append *bool

	// PublicPath overrides the global public-path policy for this tag:
	// a bool toggles the global transform, a PathTransform (or bare
	// func(string, string) string) replaces it, nil inherits.
	PublicPath any

	// Hash is the same override shape as PublicPath, for the content-hash
	// transform.
	Hash any

	// SourcePath names an on-disk file to register as a build output even
	// though it is not itself injected (a sourcemap, typically).
	SourcePath string

	// Attributes are merged onto the rendered tag node. Values must be
	// strings, bools, or numbers.
	Attributes map[string]any

	// External registers the script with the build's externals registry.
	// Only valid on JS tags.
	External *External

	// Glob and GlobPath together expand a pattern against a base directory
	// into one tag per match. Both must be set or both absent.
	Glob     string
	GlobPath string
}

// assetKind is a tag's resolved asset type.
type assetKind int

const (
	kindUnknown assetKind = iota
	kindCSS
	kindJS
)

// String returns the configuration-facing name of the kind.
func (k assetKind) String() string {
	switch k {
	case kindCSS:
		return TypeCSS
	case kindJS:
		return TypeJS
	default:
		return "unknown"
	}
}

// policyOverride is the validated tri-state form of a per-tag PublicPath or
// Hash field: unset (inherit the global policy), an explicit bool, or a
// replacement transform.
type policyOverride struct {
	set       bool
	enabled   bool
	transform PathTransform
}

// tagDescriptor is the canonical, fully validated form of one tag. Resolved
// options hold descriptors as immutable value records; nothing mutates them
// after aggregation.
type tagDescriptor struct {
	path       string
	kind       assetKind
	append     bool
	appendSet  bool
	publicPath policyOverride
	hash       policyOverride
	sourcePath string
	attributes map[string]any
	external   *External
}
