package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// Watch signals on the returned channel whenever an entry below the root
// is created, written, removed or renamed. Signals are coalesced: at most
// one is pending at a time. The channel closes when ctx is done.
func (c *Connector) Watch(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClosed
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("filesystem: create watcher: %w", err)
	}
	c.watchers = append(c.watchers, watcher)
	c.mu.Unlock()

	if err := addRecursive(watcher, c.rootPath); err != nil {
		c.dropWatcher(watcher)
		return nil, fmt.Errorf("filesystem: watch %s: %w", c.rootPath, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer c.dropWatcher(watcher)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !handleFsEvent(watcher, event) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watch error: %v", err)
			}
		}
	}()
	return changes, nil
}

// handleFsEvent reports whether an event is a change worth a crawl.
// New directories are added to the watcher.
func handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if err := addRecursive(watcher, event.Name); err != nil {
			logger.Debug("Not watching %s: %v", event.Name, err)
		}
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// addRecursive watches dir and every directory below it.
// Paths that are not directories are ignored.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

func (c *Connector) dropWatcher(watcher *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.watchers {
		if w == watcher {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			_ = w.Close()
			return
		}
	}
}
