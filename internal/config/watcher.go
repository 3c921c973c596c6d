package config

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/kuuzuki-ai/kuuzuki/internal/event"
	"github.com/kuuzuki-ai/kuuzuki/internal/logging"
	"github.com/kuuzuki-ai/kuuzuki/pkg/types"
)

// Watcher watches config files for changes and reloads on write. The
// current config snapshot is swapped atomically; readers always see a
// complete config, never a partially applied one.
type Watcher struct {
	watcher   *fsnotify.Watcher
	directory string

	mu      sync.RWMutex
	current *types.Config

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// NewWatcher creates a config watcher rooted at the project directory.
// The initial config is loaded immediately.
func NewWatcher(directory string) (*Watcher, error) {
	cfg, err := Load(directory)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch directories rather than files: editors replace files on
	// save, which drops file-level watches.
	for _, dir := range watchDirs(directory) {
		if err := fw.Add(dir); err != nil {
			logging.Debug().Str("dir", dir).Err(err).Msg("config dir not watchable")
		}
	}

	return &Watcher{
		watcher:   fw,
		directory: directory,
		current:   cfg,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// watchDirs lists the directories that can hold config files.
func watchDirs(directory string) []string {
	dirs := []string{GetPaths().Config}
	if directory != "" {
		dirs = append(dirs, directory, filepath.Join(directory, ".kuuzuki"))
	}
	return dirs
}

// Config returns the current config snapshot.
func (w *Watcher) Config() *types.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching for config changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && isConfigFile(ev.Name) {
				w.reload(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("config watcher error")
		}
	}
}

// isConfigFile reports whether a changed path is a kuuzuki config file.
func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "kuuzuki.json" || base == "kuuzuki.jsonc" ||
		strings.HasPrefix(base, "kuuzuki.json.") // editor temp-then-rename
}

func (w *Watcher) reload(path string) {
	cfg, err := Load(w.directory)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("config reload failed, keeping previous config")
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	logging.Info().Str("path", path).Msg("config reloaded")
	event.Publish(event.Event{
		Type: event.ConfigUpdated,
		Data: event.ConfigUpdatedData{Path: path},
	})
}

// Stop stops the watcher and waits for the run loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}
