package panel

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// configWatcher surfaces external edits to the config file. The parent
// directory is watched rather than the file itself: editors and our own
// atomic save replace the file by rename, which a direct file watch loses
// track of.
type configWatcher struct {
	fsw     *fsnotify.Watcher
	log     *slog.Logger
	changes chan string

	mu     sync.Mutex
	target string
}

func newConfigWatcher(path string, log *slog.Logger) (*configWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &configWatcher{
		fsw:     fsw,
		log:     log,
		changes: make(chan string, 1),
		target:  abs,
	}
	go w.run()
	return w, nil
}

func (w *configWatcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			w.mu.Lock()
			target := w.target
			w.mu.Unlock()

			evPath, err := filepath.Abs(ev.Name)
			if err != nil || evPath != target {
				continue
			}
			// Coalesce bursts; one pending notification is enough.
			select {
			case w.changes <- target:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error", "error", err)
		}
	}
}

// retarget switches the watch to a new config path.
func (w *configWatcher) retarget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		w.log.Warn("failed to retarget config watch", "path", path, "error", err)
		return
	}

	w.mu.Lock()
	old := w.target
	w.target = abs
	w.mu.Unlock()

	if filepath.Dir(abs) != filepath.Dir(old) {
		if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
			w.log.Warn("failed to watch config directory", "dir", filepath.Dir(abs), "error", err)
		}
		_ = w.fsw.Remove(filepath.Dir(old))
	}
}

func (w *configWatcher) close() error {
	return w.fsw.Close()
}
