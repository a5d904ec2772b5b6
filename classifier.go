package htmltags

import (
	"fmt"
	"regexp"
	"strings"
)

// Default extension lists for asset type inference.
var (
	defaultJSExtensions  = []string{".js"}
	defaultCSSExtensions = []string{".css"}
)

// extensionClassifier infers an asset kind from a path's suffix. One anchored
// alternation pattern is compiled per kind; matching is a case-sensitive
// literal suffix match across the configured extensions.
type extensionClassifier struct {
	js  *regexp.Regexp
	css *regexp.Regexp
}

// newExtensionClassifier builds a classifier from validated extension lists.
func newExtensionClassifier(jsExts, cssExts []string) *extensionClassifier {
	return &extensionClassifier{
		js:  compileSuffixPattern(jsExts),
		css: compileSuffixPattern(cssExts),
	}
}

// compileSuffixPattern compiles a pattern matching any of the given literal
// suffixes at the end of the input.
func compileSuffixPattern(exts []string) *regexp.Regexp {
	quoted := make([]string, len(exts))
	for i, ext := range exts {
		quoted[i] = regexp.QuoteMeta(ext)
	}
	return regexp.MustCompile("(?:" + strings.Join(quoted, "|") + ")$")
}

// classify returns the asset kind for path, or kindUnknown when neither
// extension list matches. JS wins when the lists overlap, matching the order
// the lists are consulted in.
func (c *extensionClassifier) classify(path string) assetKind {
	switch {
	case c.js.MatchString(path):
		return kindJS
	case c.css.MatchString(path):
		return kindCSS
	default:
		return kindUnknown
	}
}

// normalizeExtensionList validates a jsExtensions/cssExtensions option value.
// A single string, []string, or []any of strings is accepted; nil falls back
// to the provided defaults. Every extension must be non-empty.
func normalizeExtensionList(v any, name string, defaults []string) ([]string, error) {
	if v == nil {
		return defaults, nil
	}
	exts, ok := asStringSlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: option %q must be a string or list of strings, got %v", ErrInvalidOptionType, name, v)
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("%w: option %q must name at least one extension", ErrInvalidOptionValue, name)
	}
	for _, ext := range exts {
		if ext == "" {
			return nil, fmt.Errorf("%w: option %q contains an empty extension", ErrInvalidOptionValue, name)
		}
	}
	return exts, nil
}
