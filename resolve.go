package htmltags

import "strings"

// resolveAssetPath computes a tag's final public-facing path. The public-path
// step always runs before the hash step; the result is normalized to forward
// slashes regardless of host platform. The function is stateless and
// recomputed per document per tag, since the runtime public path and hash may
// differ between documents.
func resolveAssetPath(d tagDescriptor, ro *resolvedOptions, publicPath, hash string) string {
	p := d.path
	p = applyPathStep(p, d.publicPath, ro.publicPath, publicPath)
	p = applyPathStep(p, d.hash, ro.hash, hash)
	return toForwardSlash(p)
}

// applyPathStep runs one transform step: a per-tag transform wins, an
// explicit per-tag bool toggles the global transform, an unset override
// defers to the global policy.
func applyPathStep(p string, override policyOverride, global pathPolicy, value string) string {
	switch {
	case override.set && override.transform != nil:
		return override.transform(p, value)
	case override.set && override.enabled:
		return global.transform(p, value)
	case override.set:
		return p
	case global.enabled:
		return global.transform(p, value)
	default:
		return p
	}
}

// toForwardSlash rewrites backslash separators to the forward-slash form
// expected in HTML and URL contexts.
func toForwardSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
