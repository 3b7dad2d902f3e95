package assets

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lumina3d/lumina/engine/core"
)

// Watcher observes the shader directory and remembers which compiled
// shaders changed on disk after startup. Pipelines are immutable once
// built, so a changed shader is reported as stale rather than hot-swapped;
// the engine logs it and picks it up next launch.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	done     chan struct{}

	mutex    sync.RWMutex
	stale    map[string]time.Time
	isClosed bool
}

func NewWatcher() (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stale:    make(map[string]time.Time),
	}
	go w.run()
	return w, nil
}

// Watch adds the directory and its subdirectories to the watch list. A
// directory that does not exist yet is not an error; there is simply
// nothing to watch.
func (w *Watcher) Watch(dir string) error {
	w.mutex.RLock()
	closed := w.isClosed
	w.mutex.RUnlock()
	if closed {
		return errors.New("watcher already closed")
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsnotify.Add(path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		core.LogDebug("shader directory %s does not exist, nothing to watch", dir)
		return nil
	}
	return err
}

// Stale returns the shader files that changed since startup, in no
// particular order.
func (w *Watcher) Stale() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	paths := make([]string, 0, len(w.stale))
	for path := range w.stale {
		paths = append(paths, path)
	}
	return paths
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return nil
	}
	w.isClosed = true
	close(w.done)
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(e.Name) != ".spv" {
				continue
			}
			w.mutex.Lock()
			w.stale[e.Name] = time.Now()
			w.mutex.Unlock()
			core.LogInfo("shader %s changed on disk; restart to pick it up", e.Name)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("shader watch: %s", err.Error())

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}
