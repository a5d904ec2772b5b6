package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay groups rapid file changes (editor save bursts) into one
// rebuild.
const debounceDelay = 300 * time.Millisecond

// watchAndRebuild rebuilds the site whenever the config file or a page
// source changes. Build failures are reported and watching continues; only
// watcher failures end the loop.
func watchAndRebuild(ctx context.Context, configPath string, flags *cliFlags) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchPaths(watcher, configPath); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Watching for changes...")

	timer := time.NewTimer(debounceDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

		case <-timer.C:
			// Reload the config so edits to it take effect too.
			cfg, err := loadConfig(configPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if flags.out != "" {
				cfg.Output = flags.out
			}
			if err := buildOnce(ctx, cfg, flags); err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Fprintf(os.Stderr, "Rebuilt %d page(s)\n", len(cfg.Pages))
		}
	}
}

// addWatchPaths watches the config file's directory and every directory
// holding a page source. Directories are watched instead of files so editors
// that replace files on save keep triggering events.
func addWatchPaths(watcher *fsnotify.Watcher, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	dirs := map[string]struct{}{
		filepath.Dir(configPath): {},
	}
	for _, page := range cfg.Pages {
		dirs[filepath.Dir(page.Source)] = struct{}{}
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %q: %w", dir, err)
		}
	}
	return nil
}
