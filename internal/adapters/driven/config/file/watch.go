package file

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/factura-cli/internal/logger"
)

// Watch reloads the configuration whenever config.toml changes on disk,
// until ctx ends. The directory is watched rather than the file so editors
// that save by rename are seen. The returned channel receives a value after
// each successful reload and is closed when watching stops.
func (s *ConfigStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(s.filePath), err)
	}

	reloaded := make(chan struct{}, 1)
	go func() {
		defer close(reloaded)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.handleEvent(event) {
					continue
				}
				select {
				case reloaded <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watch: %v", err)
			}
		}
	}()
	return reloaded, nil
}

// handleEvent reloads on changes to the config file and reports whether it
// did. A file that fails to parse leaves the previous values in place.
func (s *ConfigStore) handleEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(s.filePath) {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
		return false
	}
	if err := s.Load(); err != nil {
		logger.Warn("reloading %s: %v", s.filePath, err)
		return false
	}
	logger.Debug("configuration reloaded from %s", s.filePath)
	return true
}
