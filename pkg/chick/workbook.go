package chick

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chobyoungjae/chick/pkg/chick/lock"
	"github.com/chobyoungjae/chick/pkg/chick/merge"
	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/chobyoungjae/chick/pkg/chick/sheet"
	"github.com/chobyoungjae/chick/pkg/chick/shipment"
)

// Workbook runs merge and shipment operations on one sheet of an .xlsx
// file and saves the file after every operation that changed it.
type Workbook struct {
	path   string
	opts   Options
	logger *zap.Logger
	lock   *lock.Lock

	mu         sync.Mutex
	store      *sheet.Workbook
	merger     *merge.Merger
	reconciler *shipment.Reconciler
	savedMod   time.Time
}

// Open opens the workbook at path.
func Open(path string, opts Options) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}

	w := &Workbook{
		path:   path,
		opts:   opts,
		logger: opts.logger().With(zap.String("workbook", filepath.Base(path))),
		lock:   lock.New(),
	}
	if err := w.load(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workbook) load() error {
	store, err := sheet.OpenWorkbook(w.path, w.opts.Sheet)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.path, err)
	}
	mod, _ := modTime(w.path)

	w.mu.Lock()
	old := w.store
	w.store = store
	// The services get private locks; the workbook lock is held around them.
	w.merger = merge.NewMerger(store, nil, w.opts.Merge, w.logger)
	w.reconciler = shipment.NewReconciler(store, nil, w.opts.Shipment, w.logger)
	w.savedMod = mod
	w.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Sheet returns the name of the sheet operated on.
func (w *Workbook) Sheet() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Name()
}

// Path returns the workbook file path.
func (w *Workbook) Path() string {
	return w.path
}

// Layout returns the shipment layout in use.
func (w *Workbook) Layout() shipment.Layout {
	return w.opts.Shipment
}

// Close releases the workbook without saving.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Close()
}

func (w *Workbook) services() (*merge.Merger, *shipment.Reconciler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.merger, w.reconciler
}

// exclusive runs fn holding the workbook lock, so that services, the
// operation and the save all see the same store. It reports busy when the
// lock could not be taken within wait.
func (w *Workbook) exclusive(ctx context.Context, wait time.Duration, fn func() error) (busy bool, err error) {
	err = w.lock.Do(ctx, wait, fn)
	if errors.Is(err, lock.ErrBusy) {
		w.logger.Debug("Operation dropped, workbook busy")
		return true, nil
	}
	return false, err
}

// MergeDuplicates sums rows sharing an orderer name and deletes the
// duplicates. With dryRun nothing is written.
func (w *Workbook) MergeDuplicates(ctx context.Context, dryRun bool) (*models.MergeReport, error) {
	var rep *models.MergeReport
	busy, err := w.exclusive(ctx, lock.BulkWait, func() error {
		m, _ := w.services()
		var err error
		if rep, err = m.MergeDuplicates(ctx, dryRun); err != nil {
			return err
		}
		if !dryRun && !rep.Skipped && (rep.Groups > 0 || len(rep.DeletedRows) > 0) {
			return w.save()
		}
		return nil
	})
	if err != nil {
		return rep, NewOperationError(w.Sheet(), "merge", err)
	}
	if busy {
		return &models.MergeReport{Sheet: w.Sheet(), DryRun: dryRun, Skipped: true}, nil
	}
	return rep, nil
}

// MergeAdjacent merges runs of identical neighbours in the configured
// column for display.
func (w *Workbook) MergeAdjacent(ctx context.Context) (*models.AdjacentReport, error) {
	var rep *models.AdjacentReport
	busy, err := w.exclusive(ctx, lock.BulkWait, func() error {
		m, _ := w.services()
		var err error
		if rep, err = m.MergeAdjacent(ctx, w.opts.AdjacentColumn, w.opts.AdjacentFirstRow); err != nil {
			return err
		}
		if len(rep.Runs) > 0 {
			return w.save()
		}
		return nil
	})
	if err != nil {
		return rep, NewOperationError(w.Sheet(), "merge_adjacent", err)
	}
	if busy {
		return &models.AdjacentReport{Sheet: w.Sheet(), Column: w.opts.AdjacentColumn, Skipped: true}, nil
	}
	return rep, nil
}

// Concatenate sorts the sheet by its first column and joins same-key rows.
func (w *Workbook) Concatenate(ctx context.Context) (*models.ConcatReport, error) {
	var rep *models.ConcatReport
	busy, err := w.exclusive(ctx, lock.BulkWait, func() error {
		m, _ := w.services()
		var err error
		if rep, err = m.Concatenate(ctx); err != nil {
			return err
		}
		if rep.Rows > 0 {
			return w.save()
		}
		return nil
	})
	if err != nil {
		return rep, NewOperationError(w.Sheet(), "concat", err)
	}
	if busy {
		return &models.ConcatReport{Sheet: w.Sheet(), Skipped: true}, nil
	}
	return rep, nil
}

// CheckAll reconciles every highlighted quantity against the ledger.
func (w *Workbook) CheckAll(ctx context.Context) (*models.ShipmentReport, error) {
	return w.shipment(ctx, shipment.OpCheckAll, 0, lock.BulkWait, func(r *shipment.Reconciler) (*models.ShipmentReport, error) {
		return r.CheckAll(ctx)
	})
}

// CheckRow reconciles the highlighted quantities of one row.
func (w *Workbook) CheckRow(ctx context.Context, row int) (*models.ShipmentReport, error) {
	return w.shipment(ctx, shipment.OpCheckRow, row, lock.EditWait, func(r *shipment.Reconciler) (*models.ShipmentReport, error) {
		return r.CheckRow(ctx, row)
	})
}

// HighlightRow highlights the positive quantities of row and reconciles them.
func (w *Workbook) HighlightRow(ctx context.Context, row int) (*models.ShipmentReport, error) {
	return w.shipment(ctx, shipment.OpHighlightRow, row, lock.EditWait, func(r *shipment.Reconciler) (*models.ShipmentReport, error) {
		return r.HighlightRow(ctx, row)
	})
}

// ClearRow removes the highlights of row and the ledger statuses they set.
func (w *Workbook) ClearRow(ctx context.Context, row int) (*models.ShipmentReport, error) {
	return w.shipment(ctx, shipment.OpClearRow, row, lock.EditWait, func(r *shipment.Reconciler) (*models.ShipmentReport, error) {
		return r.ClearRow(ctx, row)
	})
}

// ClearHighlights removes every highlight from the quantity grid.
func (w *Workbook) ClearHighlights(ctx context.Context) (*models.ShipmentReport, error) {
	return w.shipment(ctx, shipment.OpClearHighlights, 0, lock.BulkWait, func(r *shipment.Reconciler) (*models.ShipmentReport, error) {
		return r.ClearHighlights(ctx)
	})
}

// SetCell writes v into one cell and saves the workbook.
func (w *Workbook) SetCell(ctx context.Context, row, col int, v models.Value) error {
	busy, err := w.exclusive(ctx, lock.EditWait, func() error {
		w.mu.Lock()
		store := w.store
		w.mu.Unlock()
		if err := store.WriteRegion(row, col, [][]models.Value{{v}}); err != nil {
			return err
		}
		return w.save()
	})
	if err == nil && busy {
		err = lock.ErrBusy
	}
	if err != nil {
		return NewOperationError(w.Sheet(), "set_cell", err)
	}
	return nil
}

func (w *Workbook) shipment(ctx context.Context, op string, row int, wait time.Duration,
	fn func(*shipment.Reconciler) (*models.ShipmentReport, error)) (*models.ShipmentReport, error) {
	var rep *models.ShipmentReport
	busy, err := w.exclusive(ctx, wait, func() error {
		_, r := w.services()
		var err error
		if rep, err = fn(r); err != nil {
			return err
		}
		if rep.Skipped {
			return nil
		}
		// Highlight and clear passes change fills even without a ledger match.
		changed := len(rep.Matches) > 0 || len(rep.Cleared) > 0 ||
			op == shipment.OpHighlightRow || op == shipment.OpClearRow || op == shipment.OpClearHighlights
		if changed {
			return w.save()
		}
		return nil
	})
	if err != nil {
		return rep, NewOperationError(w.Sheet(), op, err)
	}
	if busy {
		return &models.ShipmentReport{Sheet: w.Sheet(), Operation: op, Row: row, Skipped: true}, nil
	}
	return rep, nil
}

// save writes the workbook and remembers the file's modification time so
// that the resulting change event can be told apart from outside edits.
// Callers hold the workbook lock.
func (w *Workbook) save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.store.Save(); err != nil {
		return fmt.Errorf("save %s: %w", w.path, err)
	}
	if mod, err := modTime(w.path); err == nil {
		w.savedMod = mod
	}
	w.logger.Debug("Workbook saved")
	return nil
}

// Reload rereads the workbook from disk when it was modified by someone
// else since it was last loaded or saved. It reports whether it reloaded.
func (w *Workbook) Reload(ctx context.Context) (bool, error) {
	reloaded := false
	busy, err := w.exclusive(ctx, lock.BulkWait, func() error {
		mod, err := modTime(w.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, w.path)
			}
			return err
		}
		w.mu.Lock()
		same := mod.Equal(w.savedMod)
		w.mu.Unlock()
		if same {
			return nil
		}
		if err := w.load(); err != nil {
			return err
		}
		reloaded = true
		return nil
	})
	if err != nil || busy {
		return false, err
	}
	if reloaded {
		w.logger.Info("Workbook reloaded after outside change")
	}
	return reloaded, nil
}

func modTime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}
