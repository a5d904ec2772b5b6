package htmltags

import (
	"fmt"
	"path"
	"strings"
)

// GlobExpander expands a glob pattern against a base directory into the
// relative paths of the files it matches, in a stable order. The default
// implementation walks the filesystem; tests substitute their own.
type GlobExpander interface {
	Expand(pattern, baseDir string) ([]string, error)
}

// normalizer turns raw tag specifications into canonical descriptors.
type normalizer struct {
	glob GlobExpander
}

// rawTag is the intermediate form of one tag specification with every field
// still in its declared shape. Both the Tag struct and the map form funnel
// through it so validation happens in exactly one place.
type rawTag struct {
	path       string
	pathSet    bool
	typ        any
	append_    any
	publicPath any
	hash       any
	sourcePath any
	attributes any
	external   any
	glob       any
	globPath   any
}

// normalize validates one raw specification and yields one descriptor, or
// several when a glob directive expands to multiple files. optPath names the
// option being processed ("tags[2]" and the like) for error reporting.
func (n *normalizer) normalize(spec any, optPath string) ([]tagDescriptor, error) {
	raw, err := toRawTag(spec, optPath)
	if err != nil {
		return nil, err
	}
	return n.validate(raw, optPath)
}

// toRawTag converts the accepted specification shapes into a rawTag.
func toRawTag(spec any, optPath string) (rawTag, error) {
	switch s := spec.(type) {
	case string:
		return rawTag{path: s, pathSet: true}, nil
	case Tag:
		return rawFromTag(&s), nil
	case *Tag:
		if s == nil {
			return rawTag{}, fmt.Errorf("%w: option %q is a nil tag", ErrInvalidOptionValue, optPath)
		}
		return rawFromTag(s), nil
	case map[string]any:
		return rawFromMap(s, optPath)
	default:
		return rawTag{}, fmt.Errorf("%w: option %q must be a string, Tag, or mapping, got %v", ErrInvalidOptionType, optPath, spec)
	}
}

// rawFromTag lifts a Tag struct into the intermediate form. Zero values of
// optional fields read as absent.
func rawFromTag(t *Tag) rawTag {
	raw := rawTag{
		path:       t.Path,
		pathSet:    t.Path != "",
		publicPath: t.PublicPath,
		hash:       t.Hash,
	}
	if t.Type != "" {
		raw.typ = t.Type
	}
	if t.Append != nil {
		raw.append_ = *t.Append
	}
	if t.SourcePath != "" {
		raw.sourcePath = t.SourcePath
	}
	if t.Attributes != nil {
		raw.attributes = t.Attributes
	}
	if t.External != nil {
		raw.external = t.External
	}
	if t.Glob != "" {
		raw.glob = t.Glob
	}
	if t.GlobPath != "" {
		raw.globPath = t.GlobPath
	}
	return raw
}

// rawFromMap lifts a decoded YAML mapping into the intermediate form.
// Unknown keys are rejected at this boundary rather than silently carried.
func rawFromMap(m map[string]any, optPath string) (rawTag, error) {
	var raw rawTag
	for key, v := range m {
		switch key {
		case "path":
			s, ok := v.(string)
			if !ok {
				return rawTag{}, fmt.Errorf("%w: option %q field path must be a string, got %v", ErrInvalidOptionType, optPath, v)
			}
			raw.path = s
			raw.pathSet = true
		case "type":
			raw.typ = v
		case "append":
			raw.append_ = v
		case "publicPath":
			raw.publicPath = v
		case "hash":
			raw.hash = v
		case "sourcePath":
			raw.sourcePath = v
		case "attributes":
			raw.attributes = v
		case "external":
			raw.external = v
		case "glob":
			raw.glob = v
		case "globPath":
			raw.globPath = v
		default:
			return rawTag{}, fmt.Errorf("%w: option %q field %q", ErrUnknownField, optPath, key)
		}
	}
	return raw, nil
}

// validate checks every declared field, expands glob directives, and builds
// the canonical descriptors.
func (n *normalizer) validate(raw rawTag, optPath string) ([]tagDescriptor, error) {
	var desc tagDescriptor

	kind, err := parseAssetType(raw.typ, optPath)
	if err != nil {
		return nil, err
	}
	desc.kind = kind

	if raw.append_ != nil {
		b, ok := raw.append_.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: option %q field append must be a bool, got %v", ErrInvalidOptionType, optPath, raw.append_)
		}
		desc.append = b
		desc.appendSet = true
	}

	desc.publicPath, err = parsePolicyOverride(raw.publicPath, optPath+".publicPath")
	if err != nil {
		return nil, err
	}
	desc.hash, err = parsePolicyOverride(raw.hash, optPath+".hash")
	if err != nil {
		return nil, err
	}

	if raw.sourcePath != nil {
		s, ok := raw.sourcePath.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%w: option %q field sourcePath must be a non-empty string, got %v", ErrInvalidOptionType, optPath, raw.sourcePath)
		}
		desc.sourcePath = s
	}

	desc.attributes, err = parseAttributes(raw.attributes, optPath)
	if err != nil {
		return nil, err
	}

	desc.external, err = parseExternal(raw.external, optPath)
	if err != nil {
		return nil, err
	}

	// Glob directive: both halves or neither.
	hasGlob := raw.glob != nil
	hasGlobPath := raw.globPath != nil
	if hasGlob != hasGlobPath {
		return nil, fmt.Errorf("%w: option %q must declare glob and globPath together", ErrInvalidOptionValue, optPath)
	}

	if !hasGlob {
		if !raw.pathSet || raw.path == "" {
			return nil, fmt.Errorf("%w: option %q", ErrMissingPath, optPath)
		}
		desc.path = raw.path
		return []tagDescriptor{desc}, nil
	}

	pattern, ok := raw.glob.(string)
	if !ok || pattern == "" {
		return nil, fmt.Errorf("%w: option %q field glob must be a non-empty string, got %v", ErrInvalidOptionType, optPath, raw.glob)
	}
	baseDir, ok := raw.globPath.(string)
	if !ok || baseDir == "" {
		return nil, fmt.Errorf("%w: option %q field globPath must be a non-empty string, got %v", ErrInvalidOptionType, optPath, raw.globPath)
	}

	matches, err := n.glob.Expand(pattern, baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: option %q pattern %q in %q: %v", ErrGlobExpansion, optPath, pattern, baseDir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: option %q pattern %q in %q", ErrEmptyGlobMatch, optPath, pattern, baseDir)
	}

	// One descriptor per match, everything but the path inherited.
	descs := make([]tagDescriptor, len(matches))
	for i, match := range matches {
		d := desc
		d.path = joinAssetPath(raw.path, match)
		descs[i] = d
	}
	return descs, nil
}

// parseAssetType validates an explicit type field.
func parseAssetType(v any, optPath string) (assetKind, error) {
	if v == nil {
		return kindUnknown, nil
	}
	s, ok := v.(string)
	if !ok {
		return kindUnknown, fmt.Errorf("%w: option %q field type must be a string, got %v", ErrInvalidOptionType, optPath, v)
	}
	switch s {
	case TypeCSS:
		return kindCSS, nil
	case TypeJS:
		return kindJS, nil
	default:
		return kindUnknown, fmt.Errorf("%w: option %q type %q (must be %q or %q)", ErrInvalidAssetType, optPath, s, TypeCSS, TypeJS)
	}
}

// parsePolicyOverride validates a per-tag publicPath/hash field: bool or
// transform. A transform is probed with placeholder arguments so a broken
// one fails configuration instead of the first build.
func parsePolicyOverride(v any, optPath string) (policyOverride, error) {
	if v == nil {
		return policyOverride{}, nil
	}
	if b, ok := v.(bool); ok {
		return policyOverride{set: true, enabled: b}, nil
	}
	if fn, ok := asTransform(v); ok {
		if err := probeTransform(fn, optPath); err != nil {
			return policyOverride{}, err
		}
		return policyOverride{set: true, enabled: true, transform: fn}, nil
	}
	return policyOverride{}, fmt.Errorf("%w: option %q must be a bool or func(string, string) string, got %v", ErrInvalidOptionType, optPath, v)
}

// probeTransform calls fn with placeholder arguments and reports an error if
// it panics. Any string result, empty included, is acceptable.
func probeTransform(fn PathTransform, optPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: option %q transform panicked when probed: %v", ErrInvalidOptionValue, optPath, r)
		}
	}()
	fn("probe.js", "probe-value")
	return nil
}

// parseAttributes validates an attributes field: a string-keyed mapping whose
// values are strings, bools, or numbers.
func parseAttributes(v any, optPath string) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: option %q field attributes must be a mapping, got %v", ErrInvalidOptionType, optPath, v)
	}
	out := make(map[string]any, len(m))
	for key, val := range m {
		if !isString(val) && !isBool(val) && !isNumber(val) {
			return nil, fmt.Errorf("%w: option %q attribute %q = %v (must be string, bool, or number)", ErrInvalidAttribute, optPath, key, val)
		}
		out[key] = val
	}
	return out, nil
}

// parseExternal validates an external field: an External struct or a mapping
// with packageName and variableName strings.
func parseExternal(v any, optPath string) (*External, error) {
	if v == nil {
		return nil, nil
	}
	switch e := v.(type) {
	case *External:
		if e.PackageName == "" || e.VariableName == "" {
			return nil, fmt.Errorf("%w: option %q requires packageName and variableName", ErrInvalidExternal, optPath)
		}
		ext := *e
		return &ext, nil
	case External:
		if e.PackageName == "" || e.VariableName == "" {
			return nil, fmt.Errorf("%w: option %q requires packageName and variableName", ErrInvalidExternal, optPath)
		}
		return &e, nil
	case map[string]any:
		ext := &External{}
		for key, val := range e {
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: option %q field %q must be a string, got %v", ErrInvalidExternal, optPath, key, val)
			}
			switch key {
			case "packageName":
				ext.PackageName = s
			case "variableName":
				ext.VariableName = s
			default:
				return nil, fmt.Errorf("%w: option %q unknown field %q", ErrInvalidExternal, optPath, key)
			}
		}
		if ext.PackageName == "" || ext.VariableName == "" {
			return nil, fmt.Errorf("%w: option %q requires packageName and variableName", ErrInvalidExternal, optPath)
		}
		return ext, nil
	default:
		return nil, fmt.Errorf("%w: option %q must be a mapping with packageName and variableName, got %v", ErrInvalidExternal, optPath, v)
	}
}

// joinAssetPath joins a declared base path onto a glob match using forward
// slashes, the separator HTML and URL contexts expect.
func joinAssetPath(base, match string) string {
	base = strings.ReplaceAll(base, "\\", "/")
	match = strings.ReplaceAll(match, "\\", "/")
	if base == "" {
		return match
	}
	return path.Join(base, match)
}
