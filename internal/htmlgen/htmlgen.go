// Package htmlgen is a small HTML build pipeline: it turns markdown pages
// into HTML5 documents and exposes the hook surface asset-injection plugins
// attach to. It is the concrete host behind the htmltags CLI.
package htmlgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	htmltags "github.com/HankXu/html-webpack-tags-plugin"
)

// PluginName is the name this templating pipeline registers its hooks under.
const PluginName = "htmlgen"

// Sentinel errors for build operations.
var (
	ErrNoPages       = errors.New("no pages configured")
	ErrPageRead      = errors.New("failed to read page source")
	ErrPageGenerate  = errors.New("page generation failed")
	ErrOutputWrite   = errors.New("failed to write output")
	ErrUnknownStyle  = errors.New("unknown highlighting style")
	ErrMissingOutput = errors.New("output directory not configured")
)

// Page is one markdown source to render.
type Page struct {
	Source     string // markdown file path
	OutputName string // output name relative to the output directory
	Title      string // empty falls back to Config.Title
}

// Config configures a Builder.
type Config struct {
	Title       string // default document title
	OutputDir   string
	PublicPath  string // public base path handed to injection plugins
	ChromaStyle string // highlighting style name (default "github")
	Workers     int    // 0 auto-sizes from GOMAXPROCS
	Pages       []Page
	Logf        func(format string, args ...any) // nil silences build logging
}

// Builder generates the configured pages, fanning documents out over a
// bounded worker pool. It implements htmltags.Host.
type Builder struct {
	cfg       Config
	converter *markdownConverter
	hooks     *hookSet
	externals map[string]string
}

// New validates the configuration and prepares a Builder.
func New(cfg Config) (*Builder, error) {
	if cfg.OutputDir == "" {
		return nil, ErrMissingOutput
	}
	if len(cfg.Pages) == 0 {
		return nil, ErrNoPages
	}
	for i, p := range cfg.Pages {
		if p.Source == "" || p.OutputName == "" {
			return nil, fmt.Errorf("%w: page %d needs source and output", ErrPageGenerate, i)
		}
	}

	converter, err := newMarkdownConverter(cfg.ChromaStyle)
	if err != nil {
		return nil, err
	}

	return &Builder{
		cfg:       cfg,
		converter: converter,
		hooks:     &hookSet{},
		externals: map[string]string{},
	}, nil
}

// Hooks implements htmltags.Host. Only this pipeline's own hook set is
// published; any other plugin name reports absent.
func (b *Builder) Hooks(pluginName string) (htmltags.Hooks, bool) {
	if pluginName != PluginName {
		return nil, false
	}
	return b.hooks, true
}

// Externals implements htmltags.Host.
func (b *Builder) Externals() map[string]string {
	return b.externals
}

// logf logs a build progress line when logging is configured.
func (b *Builder) logf(format string, args ...any) {
	if b.cfg.Logf != nil {
		b.cfg.Logf(format, args...)
	}
}

// Build generates every configured page. Pages are independent: one page's
// failure does not stop its siblings, and all failures are reported together.
func (b *Builder) Build(ctx context.Context) error {
	sources := make([]string, len(b.cfg.Pages))
	for i, p := range b.cfg.Pages {
		sources[i] = p.Source
	}
	hash, err := contentHash(sources)
	if err != nil {
		return err
	}
	b.logf("build hash %s", hash)

	if err := os.MkdirAll(b.cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}

	workers := resolveWorkerCount(b.cfg.Workers)
	sem := make(chan struct{}, workers)
	errCh := make(chan error, len(b.cfg.Pages))
	var wg sync.WaitGroup

	for _, page := range b.cfg.Pages {
		wg.Add(1)
		sem <- struct{}{}
		go func(page Page) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := b.buildPage(ctx, page, hash); err != nil {
				errCh <- fmt.Errorf("%w: %q: %v", ErrPageGenerate, page.OutputName, err)
				return
			}
			b.logf("generated %s", page.OutputName)
		}(page)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// buildPage runs the whole per-document pipeline: markdown conversion, both
// hook phases, tag rendering, and the final write.
func (b *Builder) buildPage(ctx context.Context, page Page, hash string) error {
	source, err := os.ReadFile(page.Source) // #nosec G304 -- page sources are build configuration
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageRead, err)
	}

	title := page.Title
	if title == "" {
		title = b.cfg.Title
	}
	htmlContent, err := b.converter.ToHTML(ctx, string(source), title)
	if err != nil {
		return err
	}

	doc := &htmltags.Document{
		OutputName: page.OutputName,
		PublicPath: b.cfg.PublicPath,
		Hash:       hash,
		Registrar:  &outputRegistrar{outputDir: b.cfg.OutputDir},
	}
	if err := b.hooks.runBefore(ctx, doc); err != nil {
		return err
	}

	rendered := renderAssetTags(doc)
	if err := b.hooks.runAlter(ctx, rendered); err != nil {
		return err
	}

	htmlContent = spliceHead(htmlContent, renderNodes(rendered.Head))
	htmlContent = spliceBody(htmlContent, renderNodes(rendered.Body))

	outPath := filepath.Join(b.cfg.OutputDir, filepath.FromSlash(page.OutputName))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := os.WriteFile(outPath, []byte(htmlContent), 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}

// hookSet is the pipeline's implementation of htmltags.Hooks. Registration
// happens before the build fans out; the slices are read-only afterwards.
type hookSet struct {
	before []func(ctx context.Context, doc *htmltags.Document) error
	alter  []func(ctx context.Context, doc *htmltags.RenderedDocument) error
}

func (h *hookSet) BeforeAssetTagGeneration(fn func(ctx context.Context, doc *htmltags.Document) error) {
	h.before = append(h.before, fn)
}

func (h *hookSet) AlterAssetTags(fn func(ctx context.Context, doc *htmltags.RenderedDocument) error) {
	h.alter = append(h.alter, fn)
}

func (h *hookSet) runBefore(ctx context.Context, doc *htmltags.Document) error {
	for _, fn := range h.before {
		if err := fn(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (h *hookSet) runAlter(ctx context.Context, doc *htmltags.RenderedDocument) error {
	for _, fn := range h.alter {
		if err := fn(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// outputRegistrar registers source files as build outputs by copying them
// into the output directory under their base name.
type outputRegistrar struct {
	outputDir string
}

// RegisterFile implements htmltags.FileRegistrar.
func (r *outputRegistrar) RegisterFile(ctx context.Context, sourcePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(sourcePath) // #nosec G304 -- source paths are build configuration
	if err != nil {
		return fmt.Errorf("reading %q: %w", sourcePath, err)
	}
	dest := filepath.Join(r.outputDir, filepath.Base(sourcePath))
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return fmt.Errorf("writing %q: %w", dest, err)
	}
	return nil
}
