package analyse

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDelay is how long Watch waits for changes to settle before running
// the analysis again.
var WatchDelay = 250 * time.Millisecond

// Watch runs the analysis, then runs it again whenever a file that it read
// changes, until ctx is done. Every run is passed to report.
func (a *Analyser) Watch(ctx context.Context, report func([]*Result, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}
	defer w.Close()

	log := a.logger()
	dirs := map[string]bool{}
	files := map[string]bool{}

	run := func() {
		results, err := a.Run(ctx)
		for _, r := range results {
			if r == nil {
				continue
			}
			for _, f := range r.Files {
				abs, err := filepath.Abs(f)
				if err != nil {
					continue
				}
				files[abs] = true

				// Editors often replace files, so watch the directory.
				dir := filepath.Dir(abs)
				if dirs[dir] {
					continue
				}
				err = w.Add(dir)
				if err != nil {
					log.Warn("cannot watch", slog.String("dir", dir), slog.Any("error", err))
					continue
				}
				dirs[dir] = true
			}
		}
		report(results, err)
	}

	run()
	var rerun <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !files[abs] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			log.Debug("file changed", slog.String("file", abs), slog.String("op", ev.Op.String()))
			rerun = time.After(WatchDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", slog.Any("error", err))
		case <-rerun:
			rerun = nil
			run()
		}
	}
}
