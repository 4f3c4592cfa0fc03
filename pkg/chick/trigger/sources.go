package trigger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source produces events onto a bus until its context is cancelled.
type Source interface {
	Run(ctx context.Context, bus *Bus) error
}

// Run drives every source until ctx is cancelled or one of them fails.
// Cancellation is not an error.
func Run(ctx context.Context, bus *Bus, sources ...Source) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range sources {
		g.Go(func() error {
			return s.Run(ctx, bus)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Ticker emits a Timer event every Interval.
type Ticker struct {
	Interval time.Duration
	Logger   *zap.Logger
}

// Run implements Source. Handler errors are logged by the bus and do not
// stop the ticker.
func (t *Ticker) Run(ctx context.Context, bus *Bus) error {
	if t.Interval <= 0 {
		return fmt.Errorf("ticker interval must be positive, got %s", t.Interval)
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tk := time.NewTicker(t.Interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tk.C:
			logger.Debug("Timer tick", zap.Time("at", now))
			_ = bus.Dispatch(ctx, Event{Kind: Timer, At: now})
		}
	}
}

// FileWatcher emits a Change event when the watched file is written,
// created or replaced. Bursts of filesystem events within Debounce are
// reported once.
type FileWatcher struct {
	Path     string
	Debounce time.Duration
	Logger   *zap.Logger
}

// DefaultDebounce settles the rename-and-write bursts editors produce when
// saving a workbook.
const DefaultDebounce = 500 * time.Millisecond

// Run implements Source. The parent directory is watched so that files
// replaced by rename keep producing events.
func (w *FileWatcher) Run(ctx context.Context, bus *Bus) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.Path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("Watching workbook", zap.String("path", abs))

	var pending time.Time
	settle := time.NewTicker(max(debounce/5, time.Millisecond))
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Workbook event", zap.String("op", ev.Op.String()))
			pending = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", zap.Error(err))

		case now := <-settle.C:
			if pending.IsZero() || now.Sub(pending) < debounce {
				continue
			}
			pending = time.Time{}
			_ = bus.Dispatch(ctx, Event{Kind: Change, Path: abs, At: now})
		}
	}
}
