package account

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events into one callback.
// Atomic writes produce a create plus a rename per save.
const watchDebounce = 200 * time.Millisecond

// Watcher observes the account storage directory and fires a callback when
// account files change, so long-running processes notice logins and
// logouts performed by other invocations.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	onChange  func()
	stop      chan struct{}
}

// NewWatcher starts watching dir. The callback runs on the watcher's own
// goroutine and must not block for long.
func NewWatcher(dir string, onChange func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		onChange:  onChange,
		stop:      make(chan struct{}),
	}
	go w.run()

	slog.Debug("account watcher started", "dir", dir)
	return w, nil
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.fsWatcher.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Debug("account watcher error", "error", err.Error())

		case <-timerC:
			w.onChange()
		}
	}
}

// relevant filters out the temporary files produced by atomic writes and
// anything that is not an account JSON file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
		return false
	}
	return filepath.Ext(event.Name) == ".json"
}
