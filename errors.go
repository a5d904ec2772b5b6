package htmltags

import "errors"

// Sentinel errors for option validation and host integration.
var (
	// Configuration errors: raised while resolving options, before any
	// document is processed. They abort plugin construction.
	ErrInvalidOptionType  = errors.New("invalid option type")
	ErrInvalidOptionValue = errors.New("invalid option value")
	ErrConflictingOptions = errors.New("conflicting options")
	ErrMissingPath        = errors.New("tag requires a path")
	ErrUnknownField       = errors.New("unknown tag field")
	ErrInvalidAssetType   = errors.New("invalid asset type")
	ErrUnclassifiedAsset  = errors.New("cannot infer asset type from path")
	ErrInvalidAttribute   = errors.New("invalid attribute value")
	ErrInvalidExternal    = errors.New("invalid external declaration")
	ErrExternalOnCSS      = errors.New("external is only valid on script tags")
	ErrEmptyGlobMatch     = errors.New("glob pattern matched no files")
	ErrGlobExpansion      = errors.New("glob expansion failed")
	ErrInvalidFilePattern = errors.New("invalid files pattern")

	// Host integration errors: raised when the plugin is applied to a build.
	ErrTemplatePluginNotFound = errors.New("template plugin not found")

	// Per-document failures: scoped to one generated document.
	ErrFileRegistration = errors.New("source file registration failed")
)
