// Package watch reloads the files of a file cache when they change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/nodegraph/loadfile"
)

// DefaultDebounce is the time to wait for further events before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches the directories of the files in a file cache. Directories are watched instead of the files
// themselves so that editors replacing a file by renaming over it are noticed.
type Watcher struct {
	files    loadfile.FileCache
	logger   log.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a watcher for every file of the cache.
func New(files loadfile.FileCache, logger log.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("bug: no logger passed to the watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher (%w)", err)
	}
	dirs := map[string]struct{}{}
	for _, key := range files.Keys() {
		f, _ := files.Get(key)
		dirs[filepath.Dir(f.AbsolutePath)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch directory %s (%w)", dir, err)
		}
	}
	return &Watcher{
		files:    files,
		logger:   logger.WithLabel("source", "watch"),
		debounce: debounce,
		watcher:  watcher,
	}, nil
}

// Run processes file events until the context is cancelled. After a quiet period of the debounce duration, the
// files that received events are reloaded and onChange is called with the sorted keys of those whose content
// changed. onChange is always called from the goroutine executing Run.
func (w *Watcher) Run(ctx context.Context, onChange func(keys []string)) error {
	pending := map[string]struct{}{}
	var quiet <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			key, ok := w.files.KeyOfPath(event.Name)
			if !ok {
				continue
			}
			w.logger.Debugf("File %s (%s) changed (%s)", event.Name, key, event.Op)
			pending[key] = struct{}{}
			quiet = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warningf("File watcher error (%v)", err)
		case <-quiet:
			quiet = nil
			if changed := w.reload(pending); len(changed) > 0 {
				onChange(changed)
			}
			pending = map[string]struct{}{}
		}
	}
}

func (w *Watcher) reload(pending map[string]struct{}) []string {
	var changed []string
	for key := range pending {
		ok, err := w.files.Reload(key)
		if err != nil {
			// A file being replaced may briefly not exist; the next event reloads it.
			w.logger.Warningf("Failed to reload %s (%v)", key, err)
			continue
		}
		if ok {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
