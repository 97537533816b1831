package config

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wricardo/mcp-training/tilepuzzle/game/levels"
)

// Watcher reports level pack and image files that change under a set of
// directory trees. Subdirectories created later are watched as they appear.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches dirs and every directory below them until Close is called
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	for _, dir := range dirs {
		if err := watcher.addTree(dir, nil); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	go watcher.run()
	return watcher, nil
}

// addTree watches root and its subdirectories, skipping hidden ones. Image
// and pack files already present are passed to found when it is non-nil.
func (w *Watcher) addTree(root string, found func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if found != nil && (isPackFile(path) || levels.IsImageFile(path)) {
				found(path)
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Close stops the watcher and closes its channels
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)
	defer close(w.Errors)

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
					if !w.watchNewDir(event.Name) {
						return
					}
					continue
				}
			}
			if !isPackFile(event.Name) && !levels.IsImageFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- event.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// watchNewDir adds a directory created after start. Files written into it
// before the watch landed are reported as changes. It returns false once
// the watcher is closing.
func (w *Watcher) watchNewDir(dir string) bool {
	var found []string
	if err := w.addTree(dir, func(path string) { found = append(found, path) }); err != nil {
		select {
		case w.Errors <- err:
		default:
		}
	}
	for _, path := range found {
		select {
		case w.Events <- path:
		case <-w.closeCh:
			return false
		}
	}
	return true
}

// Watch refreshes the cache whenever a pack or image anywhere under the
// config directory changes. It blocks until ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	w, err := NewWatcher(m.configDir)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			if err := m.RefreshCache(); err != nil {
				log.Printf("[CONFIG] refresh after %s failed: %v", name, err)
				continue
			}
			log.Printf("[CONFIG] reloaded after change to %s", name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CONFIG] watcher error: %v", err)
		}
	}
}
