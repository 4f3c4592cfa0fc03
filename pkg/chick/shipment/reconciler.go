package shipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chobyoungjae/chick/pkg/chick/lock"
	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/chobyoungjae/chick/pkg/chick/sheet"
)

// ErrRowOutOfRange is returned for a row-scoped operation on a row outside
// the order rows.
var ErrRowOutOfRange = errors.New("row outside the order rows")

// Operation names used in reports and logs.
const (
	OpCheckAll        = "check_all"
	OpCheckRow        = "check_row"
	OpHighlightRow    = "highlight_row"
	OpClearRow        = "clear_row"
	OpClearHighlights = "clear_highlights"
)

// Reconciler runs reconciliation passes against a sheet. Every pass holds
// the shared lock; a pass that cannot get it in time is dropped and
// reported as skipped.
type Reconciler struct {
	store    sheet.Store
	lock     *lock.Lock
	layout   Layout
	editWait time.Duration
	bulkWait time.Duration
	logger   *zap.Logger
}

// NewReconciler creates a Reconciler. A nil lock gets a private one; a nil
// logger discards output.
func NewReconciler(store sheet.Store, lk *lock.Lock, layout Layout, logger *zap.Logger) *Reconciler {
	if lk == nil {
		lk = lock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:    store,
		lock:     lk,
		layout:   layout,
		editWait: lock.EditWait,
		bulkWait: lock.BulkWait,
		logger:   logger.With(zap.String("sheet", store.Name())),
	}
}

// SetWaits changes how long row passes and bulk passes wait for the lock.
func (r *Reconciler) SetWaits(edit, bulk time.Duration) {
	r.editWait = edit
	r.bulkWait = bulk
}

// Layout returns the sheet layout in use.
func (r *Reconciler) Layout() Layout {
	return r.layout
}

// CheckAll reconciles every highlighted cell of the order grid. All cells,
// labels and ledger rows are read before the first status is written.
func (r *Reconciler) CheckAll(ctx context.Context) (*models.ShipmentReport, error) {
	return r.run(ctx, OpCheckAll, 0, r.bulkWait, func(rep *models.ShipmentReport, log *zap.Logger) error {
		return r.check(rep, log, r.layout.DataRegion())
	})
}

// CheckRow reconciles the highlighted cells of one order row.
func (r *Reconciler) CheckRow(ctx context.Context, row int) (*models.ShipmentReport, error) {
	if !r.layout.InData(row) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return r.run(ctx, OpCheckRow, row, r.editWait, func(rep *models.ShipmentReport, log *zap.Logger) error {
		return r.check(rep, log, r.rowRegion(row))
	})
}

// HighlightRow marks every positive quantity of row as pending, clears the
// other cells of the row, and then checks the row.
func (r *Reconciler) HighlightRow(ctx context.Context, row int) (*models.ShipmentReport, error) {
	if !r.layout.InData(row) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return r.run(ctx, OpHighlightRow, row, r.editWait, func(rep *models.ShipmentReport, log *zap.Logger) error {
		values, err := sheet.ReadRow(r.store, row, r.layout.DataStartColumn, r.layout.Width())
		if err != nil {
			return fmt.Errorf("read row %d: %w", row, err)
		}
		marks := HighlightMarks(values)
		if err := sheet.WriteMarks(r.store, row, r.layout.DataStartColumn, [][]models.Mark{marks}); err != nil {
			return fmt.Errorf("highlight row %d: %w", row, err)
		}
		return r.check(rep, log, r.rowRegion(row))
	})
}

// ClearRow removes the highlights of row and blanks the status of every
// ledger row that one of the row's positive quantities would match.
func (r *Reconciler) ClearRow(ctx context.Context, row int) (*models.ShipmentReport, error) {
	if !r.layout.InData(row) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return r.run(ctx, OpClearRow, row, r.editWait, func(rep *models.ShipmentReport, log *zap.Logger) error {
		if err := sheet.ClearMarks(r.store, r.rowRegion(row)); err != nil {
			return fmt.Errorf("clear row %d: %w", row, err)
		}

		lastRow, err := r.lastRow()
		if err != nil {
			return err
		}
		ledger, ok, err := r.readLedger(lastRow)
		if err != nil || !ok {
			return err
		}
		order, err := r.readOrders(row, 1)
		if err != nil {
			return err
		}
		headers, err := r.readHeaders()
		if err != nil {
			return err
		}
		values, err := sheet.ReadRow(r.store, row, r.layout.DataStartColumn, r.layout.Width())
		if err != nil {
			return fmt.Errorf("read row %d: %w", row, err)
		}

		keys := ClearCandidates(order[0], headers, values)
		for _, target := range ClearTargets(ledger, keys) {
			if err := r.writeStatus(target, models.Empty); err != nil {
				log.Warn("Failed to clear ledger status", zap.Int("ledger_row", target), zap.Error(err))
				rep.Failed++
				continue
			}
			rep.Cleared = append(rep.Cleared, target)
		}
		log.Debug("Row cleared", zap.Int("keys", len(keys)), zap.Int("cleared", len(rep.Cleared)))
		return nil
	})
}

// ClearHighlights removes every highlight from the order grid. Ledger
// statuses are left as they are.
func (r *Reconciler) ClearHighlights(ctx context.Context) (*models.ShipmentReport, error) {
	return r.run(ctx, OpClearHighlights, 0, r.bulkWait, func(rep *models.ShipmentReport, log *zap.Logger) error {
		if err := sheet.ClearMarks(r.store, r.layout.DataRegion()); err != nil {
			return fmt.Errorf("clear highlights: %w", err)
		}
		return nil
	})
}

func (r *Reconciler) run(ctx context.Context, op string, row int, wait time.Duration,
	fn func(*models.ShipmentReport, *zap.Logger) error) (*models.ShipmentReport, error) {
	rep := &models.ShipmentReport{
		RunID:     uuid.NewString(),
		Sheet:     r.store.Name(),
		Operation: op,
		Row:       row,
	}
	log := r.logger.With(zap.String("run", rep.RunID), zap.String("op", op))
	if row > 0 {
		log = log.With(zap.Int("row", row))
	}

	release, err := r.lock.Acquire(ctx, wait)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			log.Debug("Pass dropped, sheet busy")
			rep.Skipped = true
			return rep, nil
		}
		return nil, err
	}
	defer release()

	if err := fn(rep, log); err != nil {
		log.Error("Pass failed", zap.Error(err))
		return nil, err
	}
	log.Info("Pass complete",
		zap.Int("highlighted", rep.Highlighted),
		zap.Int("matched", len(rep.Matches)),
		zap.Int("cleared", len(rep.Cleared)),
		zap.Int("failed", rep.Failed))
	return rep, nil
}

// check snapshots region and the ledger, then writes the completion marker
// for every match.
func (r *Reconciler) check(rep *models.ShipmentReport, log *zap.Logger, region models.Region) error {
	snap, ok, err := r.snapshot(region)
	if err != nil || !ok {
		return err
	}

	rep.Highlighted = len(Candidates(snap))
	matches := Reconcile(snap)
	if len(matches) == 0 {
		return nil
	}

	marker := models.String(r.layout.CompletedMarker)
	_, native := r.store.(sheet.MarkStore)
	for _, m := range matches {
		if err := r.writeStatus(m.LedgerRow, marker); err != nil {
			log.Warn("Failed to write ledger status",
				zap.Int("ledger_row", m.LedgerRow),
				zap.String("cell", sheet.ColumnName(m.Col)+fmt.Sprint(m.Row)),
				zap.Error(err))
			rep.Failed++
			continue
		}
		rep.Matches = append(rep.Matches, m)
		if native {
			if err := sheet.WriteMarks(r.store, m.Row, m.Col, [][]models.Mark{{models.MarkCompleted}}); err != nil {
				log.Warn("Failed to mark cell completed", zap.Int("col", m.Col), zap.Error(err))
			}
		}
	}
	return nil
}

// snapshot reads region, its labels and the ledger. Rows past the last
// populated row are not read. It reports false when the ledger has no rows
// yet or no order row of region is populated.
func (r *Reconciler) snapshot(region models.Region) (*Snapshot, bool, error) {
	lastRow, err := r.lastRow()
	if err != nil {
		return nil, false, err
	}
	ledger, ok, err := r.readLedger(lastRow)
	if err != nil || !ok {
		return nil, false, err
	}
	region = region.ClampRows(lastRow)
	if region.Rows() == 0 {
		return nil, false, nil
	}

	values, err := r.store.ReadRegion(region.R1, region.C1, region.Rows(), region.Cols())
	if err != nil {
		return nil, false, fmt.Errorf("read order grid: %w", err)
	}
	marks, err := sheet.ReadMarks(r.store, region.R1, region.C1, region.Rows(), region.Cols())
	if err != nil {
		return nil, false, fmt.Errorf("read highlights: %w", err)
	}
	orders, err := r.readOrders(region.R1, region.Rows())
	if err != nil {
		return nil, false, err
	}
	headers, err := r.readHeaders()
	if err != nil {
		return nil, false, err
	}

	return &Snapshot{
		FirstRow: region.R1,
		FirstCol: region.C1,
		Orders:   orders,
		Headers:  headers,
		Values:   values,
		Marks:    marks,
		Ledger:   ledger,
	}, true, nil
}

func (r *Reconciler) lastRow() (int, error) {
	lastRow, err := r.store.LastDataRow()
	if err != nil {
		return 0, fmt.Errorf("read last row: %w", err)
	}
	return lastRow, nil
}

func (r *Reconciler) readLedger(lastRow int) ([]models.LedgerRow, bool, error) {
	if lastRow < r.layout.LedgerStartRow {
		return nil, false, nil
	}

	rows, err := r.store.ReadRegion(r.layout.LedgerStartRow, r.layout.LedgerColumn, lastRow-r.layout.LedgerStartRow+1, 4)
	if err != nil {
		return nil, false, fmt.Errorf("read ledger: %w", err)
	}
	ledger := make([]models.LedgerRow, len(rows))
	for i, v := range rows {
		ledger[i] = models.LedgerRow{
			Row:      r.layout.LedgerStartRow + i,
			Order:    at(v, 0),
			Product:  at(v, 1),
			Quantity: at(v, 2),
			Status:   at(v, 3),
		}
	}
	return ledger, true, nil
}

func (r *Reconciler) readOrders(firstRow, count int) ([]models.Value, error) {
	orders, err := sheet.ReadColumn(r.store, firstRow, r.layout.OrderColumn, count)
	if err != nil {
		return nil, fmt.Errorf("read order names: %w", err)
	}
	return orders, nil
}

func (r *Reconciler) readHeaders() ([]models.Value, error) {
	headers, err := sheet.ReadRow(r.store, r.layout.HeaderRow, r.layout.DataStartColumn, r.layout.Width())
	if err != nil {
		return nil, fmt.Errorf("read product labels: %w", err)
	}
	return headers, nil
}

func (r *Reconciler) writeStatus(ledgerRow int, v models.Value) error {
	return r.store.WriteRegion(ledgerRow, r.layout.StatusColumn(), [][]models.Value{{v}})
}

func (r *Reconciler) rowRegion(row int) models.Region {
	return models.Region{R1: row, C1: r.layout.DataStartColumn, R2: row, C2: r.layout.DataEndColumn}
}
