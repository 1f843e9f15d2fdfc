package cache

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kataras/figma-sync/pkg/logger"
)

// DefaultDebounce is how long the watcher waits for a commit to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads the snapshot whenever metadata.json is replaced, which
// happens once per commit, including commits made by other processes
// sharing the directory.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	onChange func(*Snapshot)
	debounce time.Duration
	logger   logger.Logger

	mu       sync.Mutex
	stopChan chan struct{}
	stopped  bool
}

// Watch starts watching the store's directory. onChange receives every
// freshly loaded snapshot; it may be nil.
func (s *Store) Watch(onChange func(*Snapshot)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Files are renamed into place, so the directory is watched instead of the file.
	if err := fw.Add(s.dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	w := &Watcher{
		store:    s,
		watcher:  fw,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   s.logger,
		stopChan: make(chan struct{}),
	}
	go w.watch()
	return w, nil
}

func (w *Watcher) watch() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != MetadataFile {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("Cache watcher error: %v", err)

		case <-w.stopChan:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	snap, err := w.store.Load()
	if err != nil {
		w.logger.Warnf("Cache reload failed, keeping the previous snapshot: %v", err)
		return
	}
	if w.onChange != nil {
		w.onChange(snap)
	}
}

// Close stops the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	return w.watcher.Close()
}
