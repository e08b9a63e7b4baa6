package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store serves the current Portfolio and reloads it from disk.
// Readers always see a complete, validated snapshot.
type Store struct {
	path    string
	logger  *zap.Logger
	current atomic.Pointer[Portfolio]
	loaded  atomic.Int64
}

// NewStore loads and validates the fixture at path.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps an already-loaded Portfolio. Reload is a no-op error
// for static stores since there is no file behind them.
func NewStaticStore(p *Portfolio) *Store {
	s := &Store{logger: zap.NewNop()}
	s.current.Store(p)
	s.loaded.Store(time.Now().UnixNano())
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Portfolio {
	return s.current.Load()
}

// LoadedAt reports when the active snapshot was loaded.
func (s *Store) LoadedAt() time.Time {
	return time.Unix(0, s.loaded.Load())
}

// Path returns the fixture path, empty for static stores.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the fixture. On any error the previous snapshot stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("reloading portfolio: store has no backing file")
	}
	p, err := Load(s.path)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	s.current.Store(p)
	s.loaded.Store(time.Now().UnixNano())
	return nil
}

// Watch reloads the fixture whenever it is written, created or renamed into
// place, until ctx is done. The parent directory is watched so editors that
// replace the file atomically are still seen.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	s.logger.Info("Watching portfolio fixture", zap.String("path", s.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("Portfolio reload failed, keeping previous content", zap.Error(err))
				continue
			}
			s.logger.Info("Portfolio reloaded", zap.String("path", s.path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}
