package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	htmltags "github.com/HankXu/html-webpack-tags-plugin"
	"github.com/HankXu/html-webpack-tags-plugin/internal/htmlgen"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrMissingConfig is returned when no config file argument is given.
var ErrMissingConfig = errors.New("usage: htmltags [flags] <config.yaml>")

func main() {
	flags, args, err := parseFlags(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if flags.version {
		fmt.Println("htmltags", Version)
		return
	}

	// Configure GOMAXPROCS with conditional logging.
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	if err := run(flags, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads the config, builds once, and optionally keeps rebuilding on
// source changes.
func run(flags *cliFlags, args []string) error {
	if len(args) < 1 {
		return ErrMissingConfig
	}
	configPath := args[0]

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flags.out != "" {
		cfg.Output = flags.out
	}

	ctx := context.Background()
	if err := buildOnce(ctx, cfg, flags); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Generated %d page(s) in %s\n", len(cfg.Pages), cfg.Output)

	if flags.watch {
		return watchAndRebuild(ctx, configPath, flags)
	}
	return nil
}

// buildOnce wires a fresh pipeline and plugin together and runs one build.
// A fresh builder per build keeps hook registration single-shot.
func buildOnce(ctx context.Context, cfg *buildConfig, flags *cliFlags) error {
	builder, err := htmlgen.New(builderConfig(cfg, flags))
	if err != nil {
		return err
	}

	plugin, err := htmltags.New(pluginOptions(cfg))
	if err != nil {
		return err
	}
	if err := plugin.Apply(builder); err != nil {
		return err
	}

	return builder.Build(ctx)
}
