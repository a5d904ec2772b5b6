// Package htmltags injects <link> and <script> tags into HTML documents
// produced by a build pipeline.
//
// The plugin is configured once with an Options value describing the assets
// to inject (explicit paths, glob patterns, or externals). Configuration is
// normalized into four ordered tag buckets (CSS/JS, prepended/appended
// relative to the build's own assets) at construction time; every validation
// problem fails construction before any document is touched. Per document,
// the plugin resolves each tag's final public path (public-path prefix, then
// content-hash suffix) and splices the results into the document's asset
// lists, later copying declared attributes onto the rendered tag nodes.
//
// The enclosing build system is abstracted behind the Host and Hooks
// interfaces; internal/htmlgen ships a minimal host used by the CLI.
package htmltags
