package main

import (
	"errors"
	"fmt"
	"os"

	htmltags "github.com/HankXu/html-webpack-tags-plugin"
	"github.com/HankXu/html-webpack-tags-plugin/internal/htmlgen"
	"github.com/HankXu/html-webpack-tags-plugin/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// buildConfig is the YAML build configuration: the site to generate plus the
// tag-injection options.
type buildConfig struct {
	Title       string       `yaml:"title"`
	Output      string       `yaml:"output"`
	PublicPath  string       `yaml:"publicPath"`
	ChromaStyle string       `yaml:"chromaStyle"`
	Pages       []pageConfig `yaml:"pages"`
	Inject      injectConfig `yaml:"inject"`
}

// pageConfig declares one markdown page.
type pageConfig struct {
	Source string `yaml:"source"`
	Output string `yaml:"output"`
	Title  string `yaml:"title"`
}

// injectConfig mirrors the plugin's option surface. The `any`-typed fields
// carry the same shorthands the plugin accepts: bools, strings, mappings, or
// lists, validated by the plugin itself at construction.
type injectConfig struct {
	Append        *bool    `yaml:"append"`
	PublicPath    any      `yaml:"publicPath"`
	UsePublicPath *bool    `yaml:"usePublicPath"`
	Hash          any      `yaml:"hash"`
	UseHash       *bool    `yaml:"useHash"`
	JSExtensions  any      `yaml:"jsExtensions"`
	CSSExtensions any      `yaml:"cssExtensions"`
	Tags          []any    `yaml:"tags"`
	Links         []any    `yaml:"links"`
	Scripts       []any    `yaml:"scripts"`
	Files         []string `yaml:"files"`
}

// loadConfig reads and strictly decodes a build config file.
func loadConfig(path string) (*buildConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg buildConfig
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return &cfg, nil
}

// pluginOptions maps the config's inject section onto the plugin's options.
func pluginOptions(cfg *buildConfig) htmltags.Options {
	in := cfg.Inject
	return htmltags.Options{
		Append:        in.Append,
		PublicPath:    in.PublicPath,
		UsePublicPath: in.UsePublicPath,
		Hash:          in.Hash,
		UseHash:       in.UseHash,
		JSExtensions:  in.JSExtensions,
		CSSExtensions: in.CSSExtensions,
		Tags:          in.Tags,
		Links:         in.Links,
		Scripts:       in.Scripts,
		Files:         in.Files,
	}
}

// builderConfig maps the config's site section onto the pipeline's options,
// with CLI overrides already applied to cfg.
func builderConfig(cfg *buildConfig, flags *cliFlags) htmlgen.Config {
	bc := htmlgen.Config{
		Title:       cfg.Title,
		OutputDir:   cfg.Output,
		PublicPath:  cfg.PublicPath,
		ChromaStyle: cfg.ChromaStyle,
		Workers:     flags.workers,
	}
	for _, p := range cfg.Pages {
		bc.Pages = append(bc.Pages, htmlgen.Page{
			Source:     p.Source,
			OutputName: p.Output,
			Title:      p.Title,
		})
	}
	if flags.verbose {
		bc.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return bc
}
