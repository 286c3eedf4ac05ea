package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/view"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

// runWatch submits the file's contents through v now and after every
// change until ctx ends. Submissions are asynchronous, so a save that
// lands while an earlier run is in flight supersedes it.
func runWatch(ctx context.Context, cc *CommandContext, v *view.Submission, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	events := v.Subscribe()
	defer v.Unsubscribe(events)

	changed := make(chan struct{}, 1)
	trigger := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	trigger()

	cc.Renderer.StatusLine("watching", path)

	// Debounce timer
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-changed:
			content, err := os.ReadFile(abs)
			if err != nil {
				cc.Logger.Warn("failed to read watched file", slog.String("file", abs), slog.String("error", err.Error()))
				continue
			}
			v.UpdateBuffer(string(content))
			v.Submit(ctx)

		case ev := <-events:
			if ev.Kind != view.EventResultChanged {
				continue
			}
			if ev.Outcome.State == request.StateFailure {
				cc.Renderer.Error(ev.Outcome.Reason)
				continue
			}
			if err := printOutcome(cc, v, ev.Outcome); err != nil {
				return err
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				cc.Logger.Debug("file changed, re-running", slog.String("file", abs))
				trigger()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}
