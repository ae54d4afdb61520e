package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
)

const watchDebounce = 100 * time.Millisecond

// watchAnalyze runs the analysis once, then again after every burst of
// script changes, until ctx is canceled.
func watchAnalyze(ctx context.Context, cmdCtx *CommandContext, r *output.Renderer, opts *AnalyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range watchRoots(cmdCtx.Cfg.ScriptsDir, opts.Paths) {
		if err := watchDir(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	var mu sync.Mutex
	analyze := func() {
		mu.Lock()
		defer mu.Unlock()
		run, err := runAnalysis(ctx, cmdCtx, opts)
		if err != nil {
			r.Error(err.Error())
			return
		}
		if err := renderAnalysis(r, run); err != nil {
			r.Error(err.Error())
			return
		}
		if !r.EffectiveMode().IsStructured() {
			r.Muted(summaryLine(run.Result))
		}
	}

	analyze()
	if !r.EffectiveMode().IsStructured() {
		r.Muted("Watching for changes. Press Ctrl+C to stop.")
	}

	watchLoop(ctx, watcher, cmdCtx.Logger, func(name string) {
		if !r.EffectiveMode().IsStructured() {
			r.Muted("Change detected: " + filepath.Base(name))
		}
		analyze()
	})
	return nil
}

// watchRoots returns the directories to watch: each directory argument, the
// parent of each file argument, or scriptsDir when there are no arguments.
func watchRoots(scriptsDir string, paths []string) []string {
	if len(paths) == 0 {
		return []string{scriptsDir}
	}
	seen := make(map[string]bool)
	var roots []string
	for _, p := range paths {
		dir := p
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			dir = filepath.Dir(p)
		}
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots
}

// watchDir recursively adds a directory to the watcher.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Skip hidden directories
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// watchLoop calls onChange once per burst of .sql writes. New directories are
// watched as they appear. It returns when ctx is done or the watcher closes.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, logger *slog.Logger, onChange func(name string)) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Only handle write/create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDir(watcher, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "path", event.Name, "error", err.Error())
					}
					continue
				}
			}

			if !strings.EqualFold(filepath.Ext(event.Name), ".sql") {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				logger.Debug("change detected", "path", name)
				onChange(name)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err.Error())
		}
	}
}
