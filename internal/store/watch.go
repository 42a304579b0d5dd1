package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultWatchDebounce = 75 * time.Millisecond

// Watch is the live subscription: it calls fn with the current state, then
// again after every settled change to the database, until ctx is done.
// Identical consecutive snapshots are delivered once.
func (s Store) Watch(ctx context.Context, log *zap.Logger, debounce time.Duration, fn func(State)) error {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch store: %w", err)
	}
	defer w.Close()
	if err := w.Add(s.Dir); err != nil {
		return fmt.Errorf("watch store: %w", err)
	}

	var last []byte
	emit := func() {
		st, err := s.Load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("reload store", zap.String("dir", s.Dir), zap.Error(err))
			}
			return
		}
		fp, err := json.Marshal(st)
		if err == nil && bytes.Equal(fp, last) {
			return
		}
		last = fp
		fn(st)
	}
	emit()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	base := filepath.Base(s.sqlitePath())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// The -shm file and WAL removal churn on every read.
			name := filepath.Base(ev.Name)
			if name != base && name != base+"-wal" {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("store watcher", zap.Error(err))
		case <-timer.C:
			emit()
		}
	}
}
