// Package sheet provides grid stores over spreadsheet data: an in-memory
// grid and an excelize-backed workbook sheet.
package sheet

import (
	"errors"
	"fmt"

	"github.com/chobyoungjae/chick/pkg/chick/models"
)

// ErrOutOfRange indicates a region that starts before row or column 1 or has
// a negative size.
var ErrOutOfRange = errors.New("region out of range")

// ErrSheetNotFound indicates the requested sheet does not exist in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Store is a rectangular, 1-indexed grid of cells.
type Store interface {
	// Name returns the sheet name.
	Name() string
	// ReadRegion returns rowCount x colCount values starting at (rowStart, colStart).
	ReadRegion(rowStart, colStart, rowCount, colCount int) ([][]models.Value, error)
	// ReadBackgroundColors returns the fill colour of each cell ("" for none).
	ReadBackgroundColors(rowStart, colStart, rowCount, colCount int) ([][]string, error)
	// WriteRegion writes rows starting at (rowStart, colStart).
	WriteRegion(rowStart, colStart int, rows [][]models.Value) error
	// SetBackground fills the region with color, or clears it when color is "".
	SetBackground(rowStart, colStart, rowCount, colCount int, color string) error
	// DeleteRow removes row and shifts the rows below it up by one.
	DeleteRow(row int) error
	// LastDataRow returns the last row holding a value, or 0.
	LastDataRow() (int, error)
	// LastDataColumn returns the last column holding a value, or 0.
	LastDataColumn() (int, error)
}

// MarkStore is implemented by stores that keep highlight state natively
// instead of as a fill colour.
type MarkStore interface {
	ReadMarks(rowStart, colStart, rowCount, colCount int) ([][]models.Mark, error)
	WriteMarks(rowStart, colStart int, marks [][]models.Mark) error
}

// CellMerger is implemented by stores that can display a region as one
// merged cell.
type CellMerger interface {
	MergeCells(rowStart, colStart, rowCount, colCount int) error
}

// Saver is implemented by stores backed by a file.
type Saver interface {
	Save() error
}

// ReadMarks returns the highlight state of a region. Stores without native
// marks are read through their fill colours.
func ReadMarks(s Store, rowStart, colStart, rowCount, colCount int) ([][]models.Mark, error) {
	if ms, ok := s.(MarkStore); ok {
		return ms.ReadMarks(rowStart, colStart, rowCount, colCount)
	}
	colors, err := s.ReadBackgroundColors(rowStart, colStart, rowCount, colCount)
	if err != nil {
		return nil, err
	}
	marks := make([][]models.Mark, len(colors))
	for i, row := range colors {
		marks[i] = make([]models.Mark, len(row))
		for j, c := range row {
			marks[i][j] = MarkFromColor(c)
		}
	}
	return marks, nil
}

// WriteMarks stores highlight state for a region. Stores without native
// marks receive the colour projection of each mark.
func WriteMarks(s Store, rowStart, colStart int, marks [][]models.Mark) error {
	if ms, ok := s.(MarkStore); ok {
		return ms.WriteMarks(rowStart, colStart, marks)
	}
	for i, row := range marks {
		for j, m := range row {
			if err := s.SetBackground(rowStart+i, colStart+j, 1, 1, ColorOf(m)); err != nil {
				return fmt.Errorf("set background at row %d col %d: %w", rowStart+i, colStart+j, err)
			}
		}
	}
	return nil
}

// ClearMarks removes highlight state from a region.
func ClearMarks(s Store, r models.Region) error {
	if !r.Valid() {
		return nil
	}
	if ms, ok := s.(MarkStore); ok {
		marks := make([][]models.Mark, r.Rows())
		for i := range marks {
			marks[i] = make([]models.Mark, r.Cols())
		}
		return ms.WriteMarks(r.R1, r.C1, marks)
	}
	return s.SetBackground(r.R1, r.C1, r.Rows(), r.Cols(), "")
}

// ReadColumn returns a single column as a flat slice.
func ReadColumn(s Store, rowStart, col, rowCount int) ([]models.Value, error) {
	rows, err := s.ReadRegion(rowStart, col, rowCount, 1)
	if err != nil {
		return nil, err
	}
	out := make([]models.Value, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			out[i] = r[0]
		}
	}
	return out, nil
}

// ReadRow returns a single row as a flat slice.
func ReadRow(s Store, row, colStart, colCount int) ([]models.Value, error) {
	rows, err := s.ReadRegion(row, colStart, 1, colCount)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return make([]models.Value, colCount), nil
	}
	return rows[0], nil
}

func checkRegion(rowStart, colStart, rowCount, colCount int) error {
	if rowStart < 1 || colStart < 1 || rowCount < 0 || colCount < 0 {
		return fmt.Errorf("%w: start (%d,%d) size %dx%d", ErrOutOfRange, rowStart, colStart, rowCount, colCount)
	}
	return nil
}
