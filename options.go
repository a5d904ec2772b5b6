package htmltags

import (
	"fmt"
	"path"
	"strings"
)

// DefaultTemplatePlugin is the host templating plugin the injector cooperates
// with unless Options.TemplatePlugin overrides it.
const DefaultTemplatePlugin = "htmlgen"

// Options is the plugin's configuration surface. Several fields are
// deliberately `any`-typed shorthands validated at construction; see the
// field comments for the accepted shapes.
type Options struct {
	// Append is the default placement for tags that do not declare their
	// own: after the build's assets (true, the default) or before.
	Append *bool

	// PublicPath is the public-path shorthand: bool (toggle the default
	// join against the build's public path), string (this literal replaces
	// the runtime public path in the default join), or a PathTransform.
	// Mutually exclusive with UsePublicPath/AddPublicPath.
	PublicPath    any
	UsePublicPath *bool
	AddPublicPath PathTransform

	// Hash is the content-hash shorthand, same shapes as PublicPath.
	// Mutually exclusive with UseHash/AddHash.
	Hash    any
	UseHash *bool
	AddHash PathTransform

	// JSExtensions and CSSExtensions configure asset type inference:
	// a single string or a list of strings ([".js"] and [".css"] default).
	JSExtensions  any
	CSSExtensions any

	// Tags accepts both CSS and JS entries, classified by explicit type or
	// by extension. Links entries are always CSS, Scripts entries always
	// JS. Each entry is a string, Tag, *Tag, or map[string]any.
	Tags    []any
	Links   []any
	Scripts []any

	// Files restricts injection to documents whose output name matches one
	// of these glob patterns. Empty means every document.
	Files []string

	// TemplatePlugin names the host templating plugin to cooperate with.
	TemplatePlugin string
}

// pathPolicy is a resolved transform family: whether it applies by default
// and the transform it applies.
type pathPolicy struct {
	enabled   bool
	transform PathTransform
}

// resolvedOptions is the immutable result of option aggregation, computed
// once at plugin construction and read-only afterwards.
type resolvedOptions struct {
	appendDefault bool
	publicPath    pathPolicy
	hash          pathPolicy

	cssPrepend []tagDescriptor
	cssAppend  []tagDescriptor
	jsPrepend  []tagDescriptor
	jsAppend   []tagDescriptor

	externals      map[string]string
	files          []string
	templatePlugin string
}

// defaultAddPublicPath joins the runtime public path onto an asset path with
// exactly one separating slash. An empty public path leaves the path alone.
func defaultAddPublicPath(assetPath, publicPath string) string {
	return joinPublicPath(publicPath, assetPath)
}

// defaultAddHash appends the content hash as a query string. An empty hash
// leaves the path alone.
func defaultAddHash(assetPath, hash string) string {
	if hash == "" {
		return assetPath
	}
	return assetPath + "?" + hash
}

func joinPublicPath(base, assetPath string) string {
	if base == "" {
		return assetPath
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(assetPath, "/")
}

// resolveOptions validates the whole option surface and aggregates it into
// resolved form. Any error is a configuration error that must abort plugin
// construction.
func resolveOptions(opts Options, glob GlobExpander) (*resolvedOptions, error) {
	ro := &resolvedOptions{
		appendDefault:  true,
		externals:      map[string]string{},
		templatePlugin: DefaultTemplatePlugin,
	}
	if opts.Append != nil {
		ro.appendDefault = *opts.Append
	}
	if opts.TemplatePlugin != "" {
		ro.templatePlugin = opts.TemplatePlugin
	}

	var err error
	ro.publicPath, err = resolvePathPolicy(shorthandSpec{
		shorthand: opts.PublicPath,
		use:       opts.UsePublicPath,
		add:       opts.AddPublicPath,
		name:      "publicPath",
		useName:   "usePublicPath",
		addName:   "addPublicPath",
		enabled:   true,
		transform: defaultAddPublicPath,
	})
	if err != nil {
		return nil, err
	}
	ro.hash, err = resolvePathPolicy(shorthandSpec{
		shorthand: opts.Hash,
		use:       opts.UseHash,
		add:       opts.AddHash,
		name:      "hash",
		useName:   "useHash",
		addName:   "addHash",
		enabled:   false,
		transform: defaultAddHash,
	})
	if err != nil {
		return nil, err
	}

	ro.files, err = validateFilePatterns(opts.Files)
	if err != nil {
		return nil, err
	}

	jsExts, err := normalizeExtensionList(opts.JSExtensions, "jsExtensions", defaultJSExtensions)
	if err != nil {
		return nil, err
	}
	cssExts, err := normalizeExtensionList(opts.CSSExtensions, "cssExtensions", defaultCSSExtensions)
	if err != nil {
		return nil, err
	}
	classifier := newExtensionClassifier(jsExts, cssExts)

	norm := &normalizer{glob: glob}

	var css, js []tagDescriptor

	// Mixed surface first so tags always precede links/scripts entries of
	// the same kind; this declaration order is load-bearing for attribute
	// copy-back.
	for i, spec := range opts.Tags {
		optPath := fmt.Sprintf("tags[%d]", i)
		descs, err := norm.normalize(spec, optPath)
		if err != nil {
			return nil, err
		}
		for _, d := range descs {
			if d.kind == kindUnknown {
				d.kind = classifier.classify(d.path)
			}
			switch d.kind {
			case kindCSS:
				css = append(css, d)
			case kindJS:
				js = append(js, d)
			default:
				return nil, fmt.Errorf("%w: option %q path %q (declare a type or extend jsExtensions/cssExtensions)", ErrUnclassifiedAsset, optPath, d.path)
			}
		}
	}

	css, err = appendSurface(css, opts.Links, "links", kindCSS, norm)
	if err != nil {
		return nil, err
	}
	js, err = appendSurface(js, opts.Scripts, "scripts", kindJS, norm)
	if err != nil {
		return nil, err
	}

	for i := range css {
		if css[i].external != nil {
			return nil, fmt.Errorf("%w: %q declares external %q", ErrExternalOnCSS, css[i].path, css[i].external.PackageName)
		}
	}
	for i := range js {
		if ext := js[i].external; ext != nil {
			ro.externals[ext.PackageName] = ext.VariableName
		}
	}

	ro.cssPrepend, ro.cssAppend = partitionByAppend(css, ro.appendDefault)
	ro.jsPrepend, ro.jsAppend = partitionByAppend(js, ro.appendDefault)
	return ro, nil
}

// shorthandSpec carries one transform family through resolution: the
// shorthand value, the fine-grained pair, the option names for errors, and
// the family defaults.
type shorthandSpec struct {
	shorthand any
	use       *bool
	add       PathTransform
	name      string
	useName   string
	addName   string
	enabled   bool
	transform PathTransform
}

// resolvePathPolicy collapses one transform family into resolved (enabled,
// transform) form. Declaring both the shorthand and either fine-grained
// field is a configuration error.
func resolvePathPolicy(s shorthandSpec) (pathPolicy, error) {
	if s.shorthand != nil && (s.use != nil || s.add != nil) {
		return pathPolicy{}, fmt.Errorf("%w: %q cannot be combined with %q or %q", ErrConflictingOptions, s.name, s.useName, s.addName)
	}

	policy := pathPolicy{enabled: s.enabled, transform: s.transform}

	if s.shorthand != nil {
		switch v := s.shorthand.(type) {
		case bool:
			policy.enabled = v
		case string:
			// The literal replaces the runtime value in the family's
			// default transform.
			policy.enabled = true
			policy.transform = func(assetPath, _ string) string {
				return s.transform(assetPath, v)
			}
		default:
			fn, ok := asTransform(v)
			if !ok {
				return pathPolicy{}, fmt.Errorf("%w: option %q must be a bool, string, or func(string, string) string, got %v", ErrInvalidOptionType, s.name, v)
			}
			if err := probeTransform(fn, s.name); err != nil {
				return pathPolicy{}, err
			}
			policy.enabled = true
			policy.transform = fn
		}
		return policy, nil
	}

	if s.use != nil {
		policy.enabled = *s.use
	}
	if s.add != nil {
		if err := probeTransform(s.add, s.addName); err != nil {
			return pathPolicy{}, err
		}
		policy.transform = s.add
	}
	return policy, nil
}

// appendSurface normalizes one single-kind surface (links or scripts) onto
// the accumulated descriptor list. A declared type contradicting the surface
// is rejected.
func appendSurface(acc []tagDescriptor, specs []any, name string, kind assetKind, norm *normalizer) ([]tagDescriptor, error) {
	for i, spec := range specs {
		optPath := fmt.Sprintf("%s[%d]", name, i)
		descs, err := norm.normalize(spec, optPath)
		if err != nil {
			return nil, err
		}
		for _, d := range descs {
			if d.kind != kindUnknown && d.kind != kind {
				return nil, fmt.Errorf("%w: option %q declares type %q but %s entries are always %q", ErrInvalidOptionValue, optPath, d.kind, name, kind)
			}
			d.kind = kind
			acc = append(acc, d)
		}
	}
	return acc, nil
}

// partitionByAppend splits descriptors into prepend and append buckets,
// applying the resolved default to descriptors that did not declare their
// own placement. Relative order within each bucket is declaration order.
func partitionByAppend(descs []tagDescriptor, appendDefault bool) (prepend, append_ []tagDescriptor) {
	for _, d := range descs {
		if !d.appendSet {
			d.append = appendDefault
			d.appendSet = true
		}
		if d.append {
			append_ = append(append_, d)
		} else {
			prepend = append(prepend, d)
		}
	}
	return prepend, append_
}

// validateFilePatterns checks every files glob for syntax errors up front so
// a bad pattern fails configuration instead of silently never matching.
func validateFilePatterns(patterns []string) ([]string, error) {
	for _, p := range patterns {
		if p == "" {
			return nil, fmt.Errorf("%w: empty pattern", ErrInvalidFilePattern)
		}
		if _, err := path.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFilePattern, p, err)
		}
	}
	return patterns, nil
}
