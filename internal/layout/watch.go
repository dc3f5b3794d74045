package layout

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last write before reloading.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc receives a freshly loaded layout and the hash of its file.
type ReloadFunc func(l *Layout, hash string)

// Watcher reloads a layout file when it changes on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onReload ReloadFunc
	logger   *zap.Logger
	Debounce time.Duration
}

// NewWatcher watches the directory holding path so that editors which
// replace the file on save are still seen.
func NewWatcher(path string, onReload ReloadFunc, logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("layout watcher: empty path")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		watcher:  fw,
		path:     abs,
		onReload: onReload,
		logger:   logger,
		Debounce: DefaultDebounce,
	}, nil
}

// Run watches for changes until ctx is cancelled. A layout that fails to
// load is logged and the previous one stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.Debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("layout watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	l, hash, err := LoadWithHash(w.path)
	if err != nil {
		w.logger.Error("layout reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("layout reloaded", zap.String("path", w.path), zap.String("hash", hash))
	if w.onReload != nil {
		w.onReload(l, hash)
	}
}
