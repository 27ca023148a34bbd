package glossary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mediajel/apidocs/internal/domain"
)

// reloadDebounce batches the bursts of events a single save produces.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the glossary file at path whenever it is written or
// replaced and passes each successfully parsed glossary to onChange. A
// reload that fails keeps the previous glossary and is logged. Watch blocks
// until ctx is done.
//
// The parent directory is watched rather than the file so that editors which
// save by rename keep being observed.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*domain.DomainGlossary)) error {
	if logger == nil {
		logger = slog.Default()
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving glossary path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating glossary watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	logger.Debug("watching domain glossary", "path", target)

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(reloadDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("glossary watcher error", "error", err)

		case <-timer.C:
			g, err := LoadFile(target)
			if err != nil {
				logger.Warn("glossary reload failed, keeping previous glossary", "path", target, "error", err)
				continue
			}
			logger.Info("domain glossary reloaded", "path", target, "version", g.Version, "terms", len(g.Terms))
			onChange(g)
		}
	}
}
