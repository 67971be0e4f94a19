package catalog

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// Watcher keeps an up-to-date catalog snapshot for a file on disk.
// Each successful reload publishes a new immutable snapshot; a failed reload
// keeps the previous one and reports the error.
type Watcher struct {
	fs   afero.Fs
	path string

	mu      sync.RWMutex
	current *models.Catalog

	watcher *fsnotify.Watcher
	updates chan *models.Catalog
	errs    chan error
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewWatcher loads the catalog at path and returns a Watcher for it.
// Call Start to begin watching the file for changes.
func NewWatcher(fs afero.Fs, path string) (*Watcher, error) {
	cat, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:      fs,
		path:    path,
		current: cat,
		updates: make(chan *models.Catalog, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the catalog's directory with fsnotify. Watching the directory
// rather than the file survives editors that replace the file on save.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watcher = fw

	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	target := filepath.Clean(w.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			_ = w.Reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(fmt.Errorf("watch catalog: %w", err))
		}
	}
}

// Reload re-reads the catalog file. On success the new snapshot becomes
// current and is published on Updates; on failure the previous snapshot is kept.
func (w *Watcher) Reload() error {
	cat, err := Load(w.fs, w.path)
	if err != nil {
		w.sendErr(err)
		return err
	}

	w.mu.Lock()
	w.current = cat
	w.mu.Unlock()

	// Keep only the newest snapshot if nobody has drained the channel.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- cat:
	default:
	}
	return nil
}

func (w *Watcher) sendErr(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

// Current returns the latest valid catalog snapshot.
func (w *Watcher) Current() *models.Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Updates delivers each newly loaded snapshot.
func (w *Watcher) Updates() <-chan *models.Catalog {
	return w.updates
}

// Errors delivers reload and watch failures.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Done is closed when the watcher is closed.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.watcher != nil {
			err = w.watcher.Close()
		}
		w.wg.Wait()
	})
	return err
}
