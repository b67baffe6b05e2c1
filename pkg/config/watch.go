package config

import (
	"context"
	"fmt"
	"path/filepath"

	"fortio.org/log"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads path whenever it is written or replaced and hands every
// valid result to onChange. Invalid edits are logged and skipped so the
// running scene keeps its last good configuration. Watch blocks until ctx
// is done.
//
// The parent directory is watched rather than the file itself because
// editors commonly save by renaming a temp file over the original.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log.Infof("Watching %s for changes", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				log.Warnf("Ignoring config change: %v", err)
				continue
			}
			log.Infof("Reloaded %s", abs)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errf("config watcher error: %v", err)
		}
	}
}
