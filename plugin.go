package htmltags

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/HankXu/html-webpack-tags-plugin/internal/globutil"
)

// Host abstracts the build system the plugin attaches to.
type Host interface {
	// Hooks looks up the HTML generation hooks exposed by the templating
	// plugin with the given name. The second return reports whether such a
	// plugin is configured on this build.
	Hooks(pluginName string) (Hooks, bool)

	// Externals returns the build-wide externals registry, mapping module
	// names to the global variables they resolve to at runtime.
	Externals() map[string]string
}

// Hooks are the two per-document extension points of the host's templating
// plugin. Callbacks registered here run once per generated document.
type Hooks interface {
	// BeforeAssetTagGeneration runs while the document's asset lists are
	// still plain path sequences.
	BeforeAssetTagGeneration(fn func(ctx context.Context, doc *Document) error)

	// AlterAssetTags runs after the host has materialized the asset lists
	// into rendered tag nodes.
	AlterAssetTags(fn func(ctx context.Context, doc *RenderedDocument) error)
}

// FileRegistrar registers an on-disk file as an output of the build.
// Registration may complete asynchronously inside the host; RegisterFile
// returns once the outcome is known.
type FileRegistrar interface {
	RegisterFile(ctx context.Context, sourcePath string) error
}

// Document is a generated HTML document before tag rendering: its asset
// lists are still ordered path sequences the plugin can splice into.
type Document struct {
	OutputName string
	PublicPath string
	Hash       string
	CSS        []string
	JS         []string
	Registrar  FileRegistrar
}

// RenderedDocument is the same document after the host has turned asset
// lists into tag nodes, split into head and body sequences.
type RenderedDocument struct {
	OutputName string
	Head       []*TagNode
	Body       []*TagNode
}

// TagNode is one rendered tag with a mutable attribute set.
type TagNode struct {
	TagName    string
	Attributes map[string]any
}

// Plugin injects configured link and script tags into every HTML document a
// build generates. A Plugin is immutable after New and safe for the host to
// use from concurrent document pipelines.
type Plugin struct {
	opts *resolvedOptions
}

// PluginOption customizes plugin construction.
type PluginOption func(*pluginSettings)

type pluginSettings struct {
	glob GlobExpander
}

// WithGlobExpander substitutes the filesystem glob expander used for
// glob-directive tags.
func WithGlobExpander(g GlobExpander) PluginOption {
	return func(s *pluginSettings) {
		s.glob = g
	}
}

// New validates and aggregates the options. Every configuration problem is
// reported here, before any document is processed.
func New(opts Options, popts ...PluginOption) (*Plugin, error) {
	settings := pluginSettings{glob: globutil.FS{}}
	for _, o := range popts {
		o(&settings)
	}

	ro, err := resolveOptions(opts, settings.glob)
	if err != nil {
		return nil, err
	}
	return &Plugin{opts: ro}, nil
}

// Apply attaches the plugin to a build: it looks up the templating plugin's
// hooks, merges externals into the build registry, and registers the two
// per-document callbacks. Called once per build, before any document work.
func (p *Plugin) Apply(host Host) error {
	hooks, ok := host.Hooks(p.opts.templatePlugin)
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplatePluginNotFound, p.opts.templatePlugin)
	}

	// Externals are written exactly once, before the host fans out into
	// per-document processing.
	registry := host.Externals()
	for pkg, variable := range p.opts.externals {
		registry[pkg] = variable
	}

	hooks.BeforeAssetTagGeneration(p.beforeAssetTagGeneration)
	hooks.AlterAssetTags(p.alterAssetTags)
	return nil
}

// beforeAssetTagGeneration resolves every configured tag path and splices the
// results around the document's own assets. Source-path registrations for the
// document are joined all-or-nothing: the splice only happens when every
// registration succeeded.
func (p *Plugin) beforeAssetTagGeneration(ctx context.Context, doc *Document) error {
	if p.skip(doc.OutputName) {
		return nil
	}

	if err := p.registerSourceFiles(ctx, doc); err != nil {
		return err
	}

	cssPrepend := p.resolveAll(p.opts.cssPrepend, doc)
	cssAppend := p.resolveAll(p.opts.cssAppend, doc)
	jsPrepend := p.resolveAll(p.opts.jsPrepend, doc)
	jsAppend := p.resolveAll(p.opts.jsAppend, doc)

	doc.CSS = spliceAssets(cssPrepend, doc.CSS, cssAppend)
	doc.JS = spliceAssets(jsPrepend, doc.JS, jsAppend)
	return nil
}

// resolveAll resolves one bucket in declaration order.
func (p *Plugin) resolveAll(descs []tagDescriptor, doc *Document) []string {
	if len(descs) == 0 {
		return nil
	}
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = resolveAssetPath(d, p.opts, doc.PublicPath, doc.Hash)
	}
	return out
}

// registerSourceFiles registers every descriptor's sourcePath with the host,
// waiting for all pending registrations and aggregating every failure. A
// failure fails this document's generation only.
func (p *Plugin) registerSourceFiles(ctx context.Context, doc *Document) error {
	var sources []string
	for _, bucket := range [][]tagDescriptor{p.opts.cssPrepend, p.opts.cssAppend, p.opts.jsPrepend, p.opts.jsAppend} {
		for _, d := range bucket {
			if d.sourcePath != "" {
				sources = append(sources, d.sourcePath)
			}
		}
	}
	if len(sources) == 0 {
		return nil
	}
	if doc.Registrar == nil {
		return fmt.Errorf("%w: document %q exposes no file registrar", ErrFileRegistration, doc.OutputName)
	}

	errCh := make(chan error, len(sources))
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			if err := doc.Registrar.RegisterFile(ctx, src); err != nil {
				errCh <- fmt.Errorf("%w: %q: %v", ErrFileRegistration, src, err)
			}
		}(src)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// alterAssetTags copies declared attributes onto the rendered tag nodes.
// Correspondence is positional: the first len(cssPrepend) link nodes and the
// last len(cssAppend) link nodes belong to this plugin, in the same order the
// buckets were spliced; mirrored for script nodes. This assumes no other
// plugin injected tags at the same positions, which is the integration's
// inherent ordering contract.
func (p *Plugin) alterAssetTags(ctx context.Context, doc *RenderedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.skip(doc.OutputName) {
		return nil
	}

	links := collectNodes(doc, "link")
	scripts := collectNodes(doc, "script")

	copyAttributes(links, p.opts.cssPrepend, p.opts.cssAppend)
	copyAttributes(scripts, p.opts.jsPrepend, p.opts.jsAppend)
	return nil
}

// collectNodes gathers the document's nodes with the given tag name, head
// before body, preserving rendered order.
func collectNodes(doc *RenderedDocument, tagName string) []*TagNode {
	var nodes []*TagNode
	for _, n := range doc.Head {
		if n.TagName == tagName {
			nodes = append(nodes, n)
		}
	}
	for _, n := range doc.Body {
		if n.TagName == tagName {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// copyAttributes merges descriptor attributes onto the positionally
// corresponding nodes: prepend descriptors onto the leading nodes, append
// descriptors onto the trailing ones. New keys are added, existing keys
// overwritten.
func copyAttributes(nodes []*TagNode, prepend, append_ []tagDescriptor) {
	for i, d := range prepend {
		if i >= len(nodes) {
			break
		}
		mergeAttributes(nodes[i], d.attributes)
	}
	for i, d := range append_ {
		idx := len(nodes) - len(append_) + i
		if idx < 0 || idx >= len(nodes) {
			continue
		}
		mergeAttributes(nodes[idx], d.attributes)
	}
}

func mergeAttributes(node *TagNode, attrs map[string]any) {
	if len(attrs) == 0 {
		return
	}
	if node.Attributes == nil {
		node.Attributes = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		node.Attributes[k] = v
	}
}

// skip reports whether injection is disabled for this output name by the
// files allowlist.
func (p *Plugin) skip(outputName string) bool {
	if len(p.opts.files) == 0 {
		return false
	}
	for _, pattern := range p.opts.files {
		// Patterns are validated at construction; Match cannot fail here.
		if ok, _ := path.Match(pattern, outputName); ok {
			return false
		}
	}
	return true
}

// spliceAssets places the resolved prepend and append lists around the
// document's own assets.
func spliceAssets(prepend, existing, append_ []string) []string {
	out := make([]string, 0, len(prepend)+len(existing)+len(append_))
	out = append(out, prepend...)
	out = append(out, existing...)
	out = append(out, append_...)
	return out
}
