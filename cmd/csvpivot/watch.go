package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"csvpivot/internal/config"
	"csvpivot/internal/datasource/file"
)

// debounceWindow suppresses the burst of Create+Write events a single
// upload produces. settleDelay gives the writer time to finish flushing
// after the event that triggered a run.
const (
	debounceWindow = 2 * time.Second
	settleDelay    = 200 * time.Millisecond
)

// watchAndRun processes CSV files as they appear in runtime.watch_dir,
// running the configured pipeline once per file. It returns when ctx is
// canceled.
func watchAndRun(ctx context.Context, logger zerolog.Logger, job string, p config.Pipeline) error {
	var allow map[string]struct{}
	if p.Runtime.WatchAllowlist != "" {
		var err error
		allow, err = file.ReadNameSet(p.Runtime.WatchAllowlist)
		if err != nil {
			return fmt.Errorf("read allowlist: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.Runtime.WatchDir); err != nil {
		return fmt.Errorf("watch %s: %w", p.Runtime.WatchDir, err)
	}
	logger.Info().Str("dir", p.Runtime.WatchDir).Int("allowlist", len(allow)).Msg("watching for csv files")

	lastRun := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if strings.ToLower(filepath.Ext(name)) != ".csv" {
				continue
			}
			if allow != nil {
				if _, ok := allow[name]; !ok {
					logger.Debug().Str("file", name).Msg("not on allowlist; skipped")
					continue
				}
			}
			if at, ok := lastRun[name]; ok && time.Since(at) < debounceWindow {
				continue
			}
			lastRun[name] = time.Now()

			// The writer may still be flushing right after Create.
			if !settle(ctx, settleDelay) {
				return nil
			}
			logger.Info().Str("file", event.Name).Msg("picked up")
			if err := runPipeline(ctx, logger, job, p, event.Name, os.Stdout); err != nil {
				logger.Error().Err(err).Str("file", event.Name).Msg("run failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watch error")
		}
	}
}

// settle waits out d, returning false if ctx is canceled first.
func settle(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
