package linguist

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads catalogs of dir when they change, until ctx is done.
// A created or written file is parsed and replaces its registered catalog;
// if it fails to parse the previous catalog stays registered. A removed
// or renamed file is unregistered. Subdirectories are not watched.
func (l *Loader) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot watch catalogs: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	Logger.Info().Str("dir", dir).Msg("Watching catalogs")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			l.handleEvent(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			Logger.Warn().Err(err).Str("dir", dir).Msg("Catalog watcher error")
		}
	}
}

func (l *Loader) handleEvent(ev fsnotify.Event) {
	if !isCatalogFile(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if l.forget(ev.Name) {
			Logger.Info().Str("file", ev.Name).Msg("Unloaded catalog")
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		// Errors are logged by LoadFile.
		_, _ = l.LoadFile(ev.Name)
	}
}
