package htmltags

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// fakeHooks records registered callbacks and replays them on demand.
type fakeHooks struct {
	before []func(ctx context.Context, doc *Document) error
	alter  []func(ctx context.Context, doc *RenderedDocument) error
}

func (h *fakeHooks) BeforeAssetTagGeneration(fn func(ctx context.Context, doc *Document) error) {
	h.before = append(h.before, fn)
}

func (h *fakeHooks) AlterAssetTags(fn func(ctx context.Context, doc *RenderedDocument) error) {
	h.alter = append(h.alter, fn)
}

func (h *fakeHooks) runBefore(t *testing.T, doc *Document) error {
	t.Helper()
	for _, fn := range h.before {
		if err := fn(context.Background(), doc); err != nil {
			return err
		}
	}
	return nil
}

func (h *fakeHooks) runAlter(t *testing.T, doc *RenderedDocument) error {
	t.Helper()
	for _, fn := range h.alter {
		if err := fn(context.Background(), doc); err != nil {
			return err
		}
	}
	return nil
}

// fakeHost publishes one hook set under a configurable plugin name.
type fakeHost struct {
	name      string
	hooks     *fakeHooks
	externals map[string]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		name:      DefaultTemplatePlugin,
		hooks:     &fakeHooks{},
		externals: map[string]string{},
	}
}

func (h *fakeHost) Hooks(pluginName string) (Hooks, bool) {
	if pluginName != h.name {
		return nil, false
	}
	return h.hooks, true
}

func (h *fakeHost) Externals() map[string]string {
	return h.externals
}

// fakeRegistrar records registrations and fails selected source paths.
type fakeRegistrar struct {
	mu         sync.Mutex
	registered []string
	failOn     map[string]error
}

func (r *fakeRegistrar) RegisterFile(ctx context.Context, sourcePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failOn[sourcePath]; ok {
		return err
	}
	r.registered = append(r.registered, sourcePath)
	return nil
}

func mustPlugin(t *testing.T, opts Options) *Plugin {
	t.Helper()
	p, err := New(opts, WithGlobExpander(fakeGlob{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	_, err := New(Options{Tags: []any{42}}, WithGlobExpander(fakeGlob{}))
	if !errors.Is(err, ErrInvalidOptionType) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidOptionType)
	}
}

func TestApplyTemplatePluginLookup(t *testing.T) {
	t.Run("missing plugin is fatal", func(t *testing.T) {
		p := mustPlugin(t, Options{TemplatePlugin: "absent-renderer"})
		err := p.Apply(newFakeHost())
		if !errors.Is(err, ErrTemplatePluginNotFound) {
			t.Fatalf("error = %v, want %v", err, ErrTemplatePluginNotFound)
		}
	})

	t.Run("default name found", func(t *testing.T) {
		p := mustPlugin(t, Options{})
		host := newFakeHost()
		if err := p.Apply(host); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if len(host.hooks.before) != 1 || len(host.hooks.alter) != 1 {
			t.Errorf("hooks registered = %d/%d, want 1/1", len(host.hooks.before), len(host.hooks.alter))
		}
	})
}

func TestApplyMergesExternals(t *testing.T) {
	p := mustPlugin(t, Options{
		Scripts: []any{
			Tag{Path: "react.min.js", External: &External{PackageName: "react", VariableName: "React"}},
			Tag{Path: "lodash.min.js", External: &External{PackageName: "lodash", VariableName: "_"}},
		},
	})
	host := newFakeHost()
	host.externals["preexisting"] = "Kept"

	if err := p.Apply(host); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := map[string]string{"preexisting": "Kept", "react": "React", "lodash": "_"}
	for k, v := range want {
		if host.externals[k] != v {
			t.Errorf("externals[%q] = %q, want %q", k, host.externals[k], v)
		}
	}
}

func TestBeforeGenerationSplicesAssets(t *testing.T) {
	p := mustPlugin(t, Options{
		UseHash: boolPtr(true),
		Tags: []any{
			map[string]any{"path": "reset.css", "append": false},
			"overrides.css",
			map[string]any{"path": "polyfill.js", "append": false},
		},
		Scripts: []any{"analytics.js"},
	})
	host := newFakeHost()
	if err := p.Apply(host); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	doc := &Document{
		OutputName: "index.html",
		PublicPath: "/static/",
		Hash:       "abc123",
		CSS:        []string{"/static/main.css"},
		JS:         []string{"/static/main.js"},
	}
	if err := host.hooks.runBefore(t, doc); err != nil {
		t.Fatalf("before hook: %v", err)
	}

	wantCSS := []string{
		"/static/reset.css?abc123",
		"/static/main.css",
		"/static/overrides.css?abc123",
	}
	equalStrings(t, "doc.CSS", doc.CSS, wantCSS)

	wantJS := []string{
		"/static/polyfill.js?abc123",
		"/static/main.js",
		"/static/analytics.js?abc123",
	}
	equalStrings(t, "doc.JS", doc.JS, wantJS)
}

func TestFilesAllowlistSkipsDocument(t *testing.T) {
	p := mustPlugin(t, Options{
		Files: []string{"index.html"},
		Links: []any{Tag{Path: "theme.css", Attributes: map[string]any{"media": "print"}}},
	})
	host := newFakeHost()
	if err := p.Apply(host); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	t.Run("non-matching document untouched", func(t *testing.T) {
		doc := &Document{OutputName: "other.html", CSS: []string{"own.css"}}
		if err := host.hooks.runBefore(t, doc); err != nil {
			t.Fatalf("before hook: %v", err)
		}
		equalStrings(t, "doc.CSS", doc.CSS, []string{"own.css"})

		node := &TagNode{TagName: "link", Attributes: map[string]any{"href": "own.css"}}
		rendered := &RenderedDocument{OutputName: "other.html", Head: []*TagNode{node}}
		if err := host.hooks.runAlter(t, rendered); err != nil {
			t.Fatalf("alter hook: %v", err)
		}
		if _, ok := node.Attributes["media"]; ok {
			t.Error("attribute copy-back ran on a skipped document")
		}
	})

	t.Run("matching document injected", func(t *testing.T) {
		doc := &Document{OutputName: "index.html"}
		if err := host.hooks.runBefore(t, doc); err != nil {
			t.Fatalf("before hook: %v", err)
		}
		if len(doc.CSS) != 1 {
			t.Fatalf("doc.CSS = %v, want one injected stylesheet", doc.CSS)
		}
	})
}

func TestAlterTagsAttributeCopyBack(t *testing.T) {
	p := mustPlugin(t, Options{
		Tags: []any{
			map[string]any{
				"path":       "reset.css",
				"append":     false,
				"attributes": map[string]any{"media": "screen", "data-weight": 1},
			},
		},
		Links: []any{
			map[string]any{
				"path":       "overrides.css",
				"attributes": map[string]any{"rel": "preload", "crossorigin": true},
			},
		},
		Scripts: []any{
			map[string]any{
				"path":       "app.js",
				"attributes": map[string]any{"defer": true},
			},
		},
	})
	host := newFakeHost()
	if err := p.Apply(host); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// The host rendered: plugin's prepend link, the build's own link, the
	// plugin's append link; one build script then the plugin's script.
	prependLink := &TagNode{TagName: "link", Attributes: map[string]any{"href": "reset.css", "rel": "stylesheet"}}
	ownLink := &TagNode{TagName: "link", Attributes: map[string]any{"href": "main.css", "rel": "stylesheet"}}
	appendLink := &TagNode{TagName: "link", Attributes: map[string]any{"href": "overrides.css", "rel": "stylesheet"}}
	ownScript := &TagNode{TagName: "script", Attributes: map[string]any{"src": "main.js"}}
	appendScript := &TagNode{TagName: "script", Attributes: map[string]any{"src": "app.js"}}

	rendered := &RenderedDocument{
		OutputName: "index.html",
		Head:       []*TagNode{prependLink, ownLink, appendLink},
		Body:       []*TagNode{ownScript, appendScript},
	}
	if err := host.hooks.runAlter(t, rendered); err != nil {
		t.Fatalf("alter hook: %v", err)
	}

	if prependLink.Attributes["media"] != "screen" || prependLink.Attributes["data-weight"] != 1 {
		t.Errorf("prepend link attributes = %v, want media and data-weight merged", prependLink.Attributes)
	}
	// Existing keys are overwritten.
	if appendLink.Attributes["rel"] != "preload" {
		t.Errorf("append link rel = %v, want overwritten to preload", appendLink.Attributes["rel"])
	}
	if appendLink.Attributes["crossorigin"] != true {
		t.Errorf("append link crossorigin = %v, want true", appendLink.Attributes["crossorigin"])
	}
	// The document's own tags stay untouched.
	if len(ownLink.Attributes) != 2 {
		t.Errorf("own link attributes = %v, want untouched", ownLink.Attributes)
	}
	if ownScript.Attributes["defer"] != nil {
		t.Errorf("own script gained defer: %v", ownScript.Attributes)
	}
	if appendScript.Attributes["defer"] != true {
		t.Errorf("append script attributes = %v, want defer", appendScript.Attributes)
	}
}

func TestAlterTagsFewerNodesThanDescriptors(t *testing.T) {
	p := mustPlugin(t, Options{
		Links: []any{
			Tag{Path: "a.css", Attributes: map[string]any{"media": "print"}},
			Tag{Path: "b.css", Attributes: map[string]any{"media": "screen"}},
		},
	})
	host := newFakeHost()
	if err := p.Apply(host); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	only := &TagNode{TagName: "link", Attributes: map[string]any{"href": "a.css"}}
	rendered := &RenderedDocument{OutputName: "index.html", Head: []*TagNode{only}}
	// Must not panic; the single node corresponds to the tail of the
	// append bucket.
	if err := host.hooks.runAlter(t, rendered); err != nil {
		t.Fatalf("alter hook: %v", err)
	}
}

func TestSourceFileRegistration(t *testing.T) {
	opts := Options{
		Scripts: []any{
			Tag{Path: "lib.js", SourcePath: "dist/lib.js.map"},
			Tag{Path: "app.js", SourcePath: "dist/app.js.map"},
		},
	}

	t.Run("all registrations succeed", func(t *testing.T) {
		p := mustPlugin(t, opts)
		host := newFakeHost()
		if err := p.Apply(host); err != nil {
			t.Fatalf("Apply: %v", err)
		}

		reg := &fakeRegistrar{}
		doc := &Document{OutputName: "index.html", Registrar: reg}
		if err := host.hooks.runBefore(t, doc); err != nil {
			t.Fatalf("before hook: %v", err)
		}
		if len(reg.registered) != 2 {
			t.Errorf("registered %v, want both sourcemaps", reg.registered)
		}
		if len(doc.JS) != 2 {
			t.Errorf("doc.JS = %v, want both scripts spliced", doc.JS)
		}
	})

	t.Run("one failure fails the document and skips splicing", func(t *testing.T) {
		p := mustPlugin(t, opts)
		host := newFakeHost()
		if err := p.Apply(host); err != nil {
			t.Fatalf("Apply: %v", err)
		}

		reg := &fakeRegistrar{failOn: map[string]error{
			"dist/app.js.map": fmt.Errorf("permission denied"),
		}}
		doc := &Document{OutputName: "index.html", JS: []string{"own.js"}, Registrar: reg}
		err := host.hooks.runBefore(t, doc)
		if !errors.Is(err, ErrFileRegistration) {
			t.Fatalf("error = %v, want %v", err, ErrFileRegistration)
		}
		equalStrings(t, "doc.JS", doc.JS, []string{"own.js"})
	})

	t.Run("missing registrar fails the document", func(t *testing.T) {
		p := mustPlugin(t, opts)
		host := newFakeHost()
		if err := p.Apply(host); err != nil {
			t.Fatalf("Apply: %v", err)
		}

		doc := &Document{OutputName: "index.html"}
		err := host.hooks.runBefore(t, doc)
		if !errors.Is(err, ErrFileRegistration) {
			t.Fatalf("error = %v, want %v", err, ErrFileRegistration)
		}
	})
}
