package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chobyoungjae/chick/pkg/chick/lock"
	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/chobyoungjae/chick/pkg/chick/sheet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPrecondition is wrapped by every error that aborts a merge before it
// writes anything.
var ErrPrecondition = errors.New("merge precondition failed")

var (
	// ErrNotEnoughRows means the sheet has no data rows below the header.
	ErrNotEnoughRows = fmt.Errorf("%w: not enough data rows", ErrPrecondition)
	// ErrHeaderNotFound means the end-marker label is missing from the header row.
	ErrHeaderNotFound = fmt.Errorf("%w: header label not found", ErrPrecondition)
	// ErrInvalidRange means the value columns are empty or reversed.
	ErrInvalidRange = fmt.Errorf("%w: invalid value column range", ErrPrecondition)
	// ErrMergeUnsupported means the store cannot display merged cells.
	ErrMergeUnsupported = errors.New("store does not support merged cells")
)

// Layout locates the order table on the sheet. Rows and columns are 1-based.
type Layout struct {
	// HeaderRow holds the product labels and the end marker.
	HeaderRow int `yaml:"header_row"`
	// DataStartRow is the first order row.
	DataStartRow int `yaml:"data_start_row"`
	// KeyColumn holds the orderer name used to group rows.
	KeyColumn int `yaml:"key_column"`
	// ValueStartColumn is the first summed column.
	ValueStartColumn int `yaml:"value_start_column"`
	// EndMarker is the header label of the first column after the summed
	// range. When empty, ValueEndColumn is used instead.
	EndMarker string `yaml:"end_marker"`
	// ValueEndColumn is the last summed column when EndMarker is empty.
	ValueEndColumn int `yaml:"value_end_column"`
}

// DefaultLayout returns the layout of the daily order sheet.
func DefaultLayout() Layout {
	return Layout{
		HeaderRow:        6,
		DataStartRow:     7,
		KeyColumn:        1,
		ValueStartColumn: 4,
		EndMarker:        "예약리스트",
	}
}

// Merger applies the merge variants to a sheet under the exclusive lock.
type Merger struct {
	store  sheet.Store
	lock   *lock.Lock
	layout Layout
	wait   time.Duration
	logger *zap.Logger
}

// NewMerger creates a Merger. A nil lock gets a private one; a nil logger
// discards output.
func NewMerger(store sheet.Store, lk *lock.Lock, layout Layout, logger *zap.Logger) *Merger {
	if lk == nil {
		lk = lock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		store:  store,
		lock:   lk,
		layout: layout,
		wait:   lock.BulkWait,
		logger: logger.With(zap.String("sheet", store.Name())),
	}
}

// SetWait changes how long operations wait for the lock.
func (m *Merger) SetWait(d time.Duration) {
	m.wait = d
}

// MergeDuplicates sums the value columns of rows sharing a key into the
// first such row and deletes the others from the bottom up. With dryRun
// the report is computed without writing.
func (m *Merger) MergeDuplicates(ctx context.Context, dryRun bool) (*models.MergeReport, error) {
	report := &models.MergeReport{
		RunID:  uuid.NewString(),
		Sheet:  m.store.Name(),
		DryRun: dryRun,
	}
	log := m.logger.With(zap.String("run", report.RunID))

	release, err := m.lock.Acquire(ctx, m.wait)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			log.Debug("Merge dropped, sheet busy")
			report.Skipped = true
			return report, nil
		}
		return nil, err
	}
	defer release()

	lastRow, err := m.store.LastDataRow()
	if err != nil {
		return nil, fmt.Errorf("read last row: %w", err)
	}
	if lastRow < m.layout.DataStartRow {
		return nil, fmt.Errorf("%w: last row %d, data starts at row %d", ErrNotEnoughRows, lastRow, m.layout.DataStartRow)
	}

	endCol, markerCol, err := m.valueEnd()
	if err != nil {
		return nil, err
	}
	if m.layout.ValueStartColumn >= endCol {
		return nil, fmt.Errorf("%w: columns %s..%s", ErrInvalidRange,
			sheet.ColumnName(m.layout.ValueStartColumn), sheet.ColumnName(endCol))
	}
	report.KeyColumn = m.layout.KeyColumn
	report.ValueStart = m.layout.ValueStartColumn
	report.ValueEnd = endCol
	report.MarkerColumn = markerCol
	report.Range = sheet.FormatRange(models.Region{
		R1: m.layout.DataStartRow, C1: m.layout.ValueStartColumn, R2: lastRow, C2: endCol,
	})

	width := endCol
	if m.layout.KeyColumn > width {
		width = m.layout.KeyColumn
	}
	rowCount := lastRow - m.layout.DataStartRow + 1
	rows, err := m.store.ReadRegion(m.layout.DataStartRow, 1, rowCount, width)
	if err != nil {
		return nil, fmt.Errorf("read order rows: %w", err)
	}

	res, err := ByKey(rows, Columns{
		Key:        m.layout.KeyColumn - 1,
		ValueStart: m.layout.ValueStartColumn - 1,
		ValueEnd:   endCol - 1,
	})
	if err != nil {
		return nil, err
	}

	dups := res.Duplicated()
	report.Groups = len(dups)
	log.Info("Merging duplicate rows",
		zap.Int("rows", rowCount),
		zap.Int("groups", len(dups)),
		zap.String("range", report.Range))

	if dryRun {
		for _, r := range res.Delete {
			report.DeletedRows = append(report.DeletedRows, m.layout.DataStartRow+r)
		}
		return report, nil
	}

	// A group whose summed row failed to write keeps its duplicates.
	keep := make(map[int]bool)
	for _, g := range dups {
		survivor := g.Rows[0]
		sheetRow := m.layout.DataStartRow + survivor
		if err := m.store.WriteRegion(sheetRow, m.layout.ValueStartColumn, [][]models.Value{res.Summed[survivor]}); err != nil {
			log.Warn("Failed to write merged row", zap.Int("row", sheetRow), zap.Error(err))
			for _, r := range g.Rows[1:] {
				keep[r] = true
			}
		}
	}

	for _, r := range res.Delete {
		if keep[r] {
			continue
		}
		sheetRow := m.layout.DataStartRow + r
		if err := m.store.DeleteRow(sheetRow); err != nil {
			log.Warn("Failed to delete row", zap.Int("row", sheetRow), zap.Error(err))
			continue
		}
		report.DeletedRows = append(report.DeletedRows, sheetRow)
	}

	log.Info("Merge complete", zap.Int("deleted", len(report.DeletedRows)))
	return report, nil
}

// valueEnd resolves the last summed column, returning the marker column
// when the end marker was used.
func (m *Merger) valueEnd() (endCol, markerCol int, err error) {
	if m.layout.EndMarker == "" {
		return m.layout.ValueEndColumn, 0, nil
	}

	lastCol, err := m.store.LastDataColumn()
	if err != nil {
		return 0, 0, fmt.Errorf("read last column: %w", err)
	}
	header, err := sheet.ReadRow(m.store, m.layout.HeaderRow, 1, lastCol)
	if err != nil {
		return 0, 0, fmt.Errorf("read header row: %w", err)
	}
	marker := models.String(m.layout.EndMarker)
	for i, h := range header {
		if h.Equal(marker) {
			return i, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q in row %d", ErrHeaderNotFound, m.layout.EndMarker, m.layout.HeaderRow)
}

// MergeAdjacent displays each run of identical consecutive values in
// column, from firstRow to the last data row, as one merged cell.
func (m *Merger) MergeAdjacent(ctx context.Context, column, firstRow int) (*models.AdjacentReport, error) {
	report := &models.AdjacentReport{
		RunID:  uuid.NewString(),
		Sheet:  m.store.Name(),
		Column: column,
	}
	log := m.logger.With(zap.String("run", report.RunID))

	merger, ok := m.store.(sheet.CellMerger)
	if !ok {
		return nil, ErrMergeUnsupported
	}
	if column < 1 || firstRow < 1 {
		return nil, fmt.Errorf("%w: column %d from row %d", ErrInvalidColumns, column, firstRow)
	}

	release, err := m.lock.Acquire(ctx, m.wait)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			log.Debug("Adjacent merge dropped, sheet busy")
			report.Skipped = true
			return report, nil
		}
		return nil, err
	}
	defer release()

	lastRow, err := m.store.LastDataRow()
	if err != nil {
		return nil, fmt.Errorf("read last row: %w", err)
	}
	if lastRow < firstRow {
		return report, nil
	}

	values, err := sheet.ReadColumn(m.store, firstRow, column, lastRow-firstRow+1)
	if err != nil {
		return nil, fmt.Errorf("read column %s: %w", sheet.ColumnName(column), err)
	}

	for _, run := range AdjacentRuns(values) {
		if err := merger.MergeCells(firstRow+run.Start, column, run.Length, 1); err != nil {
			log.Warn("Failed to merge cells", zap.Int("row", firstRow+run.Start), zap.Int("length", run.Length), zap.Error(err))
			continue
		}
		report.Runs = append(report.Runs, run)
	}

	log.Info("Adjacent merge complete", zap.Int("runs", len(report.Runs)))
	return report, nil
}

// Concatenate rewrites the sheet: row 1 stays as the header, the remaining
// rows are sorted by the first column and same-key rows are joined
// side by side.
func (m *Merger) Concatenate(ctx context.Context) (*models.ConcatReport, error) {
	report := &models.ConcatReport{
		RunID: uuid.NewString(),
		Sheet: m.store.Name(),
	}
	log := m.logger.With(zap.String("run", report.RunID))

	release, err := m.lock.Acquire(ctx, m.wait)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			log.Debug("Concatenate dropped, sheet busy")
			report.Skipped = true
			return report, nil
		}
		return nil, err
	}
	defer release()

	used, ok, err := sheet.UsedRange(m.store)
	if err != nil {
		return nil, fmt.Errorf("read used range: %w", err)
	}
	if !ok || used.R2 < 2 {
		return report, nil
	}

	all, err := m.store.ReadRegion(1, 1, used.R2, used.C2)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	header := all[0]
	body, err := SortConcat(all[1:], 0)
	if err != nil {
		return nil, err
	}

	output := Pad(append([][]models.Value{header}, body...), 0)
	report.Rows = len(body)
	report.Width = len(output[0])

	// Output and the blanking of leftover cells go out in one write.
	height, width := max(used.R2, len(output)), max(used.C2, report.Width)
	grid := make([][]models.Value, height)
	for i := range grid {
		grid[i] = make([]models.Value, width)
		if i < len(output) {
			copy(grid[i], output[i])
		}
	}
	if err := m.store.WriteRegion(1, 1, grid); err != nil {
		return nil, fmt.Errorf("write concatenated rows: %w", err)
	}

	log.Info("Concatenate complete", zap.Int("rows", report.Rows), zap.Int("width", report.Width))
	return report, nil
}
