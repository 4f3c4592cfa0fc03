package sheet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/xuri/excelize/v2"
)

// Workbook is a Store over one sheet of an excelize workbook.
type Workbook struct {
	mu        sync.Mutex
	f         *excelize.File
	sheet     string
	fillStyle map[string]int // fill colour -> style id
}

// OpenWorkbook opens an .xlsx file and selects sheetName. An empty
// sheetName selects the first sheet.
func OpenWorkbook(path, sheetName string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWorkbook(f, sheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// NewWorkbook wraps an open excelize file.
func NewWorkbook(f *excelize.File, sheetName string) (*Workbook, error) {
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	idx, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}
	return &Workbook{f: f, sheet: sheetName, fillStyle: make(map[string]int)}, nil
}

// Name returns the sheet name.
func (w *Workbook) Name() string {
	return w.sheet
}

// File returns the underlying workbook.
func (w *Workbook) File() *excelize.File {
	return w.f
}

// Save writes the workbook back to its file.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Save()
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.SaveAs(path)
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// ReadRegion implements Store.
func (w *Workbook) ReadRegion(rowStart, colStart, rowCount, colCount int) ([][]models.Value, error) {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	all, err := readCells(w.f, w.sheet)
	if err != nil {
		return nil, err
	}
	out := make([][]models.Value, rowCount)
	for i := range out {
		out[i] = make([]models.Value, colCount)
		r := rowStart - 1 + i
		if r >= len(all) {
			continue
		}
		for j := range out[i] {
			c := colStart - 1 + j
			if c < len(all[r]) {
				out[i][j] = all[r][c]
			}
		}
	}
	return out, nil
}

// ReadBackgroundColors implements Store. Colours are returned as "#RRGGBB"
// (or "#AARRGGBB" when the file carries an alpha channel).
func (w *Workbook) ReadBackgroundColors(rowStart, colStart, rowCount, colCount int) ([][]string, error) {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	byStyle := make(map[int]string)
	out := make([][]string, rowCount)
	for i := range out {
		out[i] = make([]string, colCount)
		for j := range out[i] {
			name, err := cellName(rowStart+i, colStart+j)
			if err != nil {
				return nil, err
			}
			styleID, err := w.f.GetCellStyle(w.sheet, name)
			if err != nil {
				return nil, err
			}
			if styleID == 0 {
				continue
			}
			color, ok := byStyle[styleID]
			if !ok {
				color, err = w.fillColor(styleID)
				if err != nil {
					return nil, err
				}
				byStyle[styleID] = color
			}
			out[i][j] = color
		}
	}
	return out, nil
}

func (w *Workbook) fillColor(styleID int) (string, error) {
	style, err := w.f.GetStyle(styleID)
	if err != nil {
		return "", err
	}
	if style == nil || style.Fill.Type != "pattern" || len(style.Fill.Color) == 0 {
		return "", nil
	}
	color := strings.TrimSpace(style.Fill.Color[0])
	if color == "" {
		return "", nil
	}
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	return strings.ToUpper(color), nil
}

// WriteRegion implements Store.
func (w *Workbook) WriteRegion(rowStart, colStart int, rows [][]models.Value) error {
	if err := checkRegion(rowStart, colStart, len(rows), 0); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, row := range rows {
		for j, v := range row {
			name, err := cellName(rowStart+i, colStart+j)
			if err != nil {
				return err
			}
			if err := w.f.SetCellValue(w.sheet, name, v.Interface()); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
	}
	return nil
}

// SetBackground implements Store. Any yellow variant is written as Yellow.
// The cell style is replaced, so other formatting on the cell is dropped.
func (w *Workbook) SetBackground(rowStart, colStart, rowCount, colCount int, color string) error {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return err
	}
	if rowCount == 0 || colCount == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	styleID, err := w.styleFor(color)
	if err != nil {
		return err
	}
	topLeft, err := cellName(rowStart, colStart)
	if err != nil {
		return err
	}
	bottomRight, err := cellName(rowStart+rowCount-1, colStart+colCount-1)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(w.sheet, topLeft, bottomRight, styleID)
}

func (w *Workbook) styleFor(color string) (int, error) {
	if color == "" {
		return 0, nil
	}
	if IsYellow(color) {
		color = Yellow
	}
	if id, ok := w.fillStyle[color]; ok {
		return id, nil
	}
	id, err := w.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return 0, fmt.Errorf("create fill style %s: %w", color, err)
	}
	w.fillStyle[color] = id
	return id, nil
}

// DeleteRow implements Store.
func (w *Workbook) DeleteRow(row int) error {
	if row < 1 {
		return fmt.Errorf("%w: row %d", ErrOutOfRange, row)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.RemoveRow(w.sheet, row)
}

// LastDataRow implements Store.
func (w *Workbook) LastDataRow() (int, error) {
	_, maxRow, _, _, err := w.bounds()
	return maxRow + 1, err
}

// LastDataColumn implements Store.
func (w *Workbook) LastDataColumn() (int, error) {
	_, _, _, maxCol, err := w.bounds()
	return maxCol + 1, err
}

func (w *Workbook) bounds() (minRow, maxRow, minCol, maxCol int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := readCells(w.f, w.sheet)
	if err != nil {
		return -1, -1, -1, -1, err
	}
	minRow, maxRow, minCol, maxCol = findDataBounds(rows)
	return minRow, maxRow, minCol, maxCol, nil
}

// MergeCells implements CellMerger.
func (w *Workbook) MergeCells(rowStart, colStart, rowCount, colCount int) error {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return err
	}
	if rowCount == 0 || colCount == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	topLeft, err := cellName(rowStart, colStart)
	if err != nil {
		return err
	}
	bottomRight, err := cellName(rowStart+rowCount-1, colStart+colCount-1)
	if err != nil {
		return err
	}
	return w.f.MergeCell(w.sheet, topLeft, bottomRight)
}
