package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// mapWatcher signals on Changed once writes to the map file settle.
type mapWatcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	changed  chan struct{}
}

func newMapWatcher(path string, debounce time.Duration, logger *zap.Logger) (*mapWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &mapWatcher{
		path:     abs,
		debounce: debounce,
		logger:   logger,
		changed:  make(chan struct{}, 1),
	}, nil
}

func (w *mapWatcher) Changed() <-chan struct{} {
	return w.changed
}

func (w *mapWatcher) notify() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// Run watches until ctx is done. The directory is watched rather than the
// file so editors that replace the file are seen.
func (w *mapWatcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.logger.Info("watching map", zap.String("path", w.path))

	target := filepath.Base(w.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			switch {
			case ev.Op&fsnotify.Remove != 0:
				w.logger.Warn("map removed", zap.String("path", w.path))
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				if timer == nil {
					timer = time.AfterFunc(w.debounce, w.notify)
				} else {
					timer.Reset(w.debounce)
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}
