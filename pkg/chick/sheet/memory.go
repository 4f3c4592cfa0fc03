package sheet

import (
	"fmt"
	"sync"

	"github.com/chobyoungjae/chick/pkg/chick/models"
)

type memCell struct {
	value models.Value
	mark  models.Mark
	color string // non-yellow fills are kept verbatim for ReadBackgroundColors
}

// Memory is an in-memory Store. Highlight state is kept as marks; fill
// colours are derived from them.
type Memory struct {
	mu     sync.RWMutex
	name   string
	cells  [][]memCell
	merges []models.Region
}

// NewMemory creates a sheet whose row 1, column 1 is rows[0][0].
func NewMemory(name string, rows [][]models.Value) *Memory {
	m := &Memory{name: name}
	for i, row := range rows {
		for j, v := range row {
			m.set(i+1, j+1, func(c *memCell) { c.value = v })
		}
	}
	return m
}

// Name returns the sheet name.
func (m *Memory) Name() string {
	return m.name
}

// ReadRegion implements Store.
func (m *Memory) ReadRegion(rowStart, colStart, rowCount, colCount int) ([][]models.Value, error) {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]models.Value, rowCount)
	for i := range out {
		out[i] = make([]models.Value, colCount)
		for j := range out[i] {
			out[i][j] = m.get(rowStart+i, colStart+j).value
		}
	}
	return out, nil
}

// ReadBackgroundColors implements Store.
func (m *Memory) ReadBackgroundColors(rowStart, colStart, rowCount, colCount int) ([][]string, error) {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]string, rowCount)
	for i := range out {
		out[i] = make([]string, colCount)
		for j := range out[i] {
			c := m.get(rowStart+i, colStart+j)
			if c.mark.Highlighted() {
				out[i][j] = ColorOf(c.mark)
			} else {
				out[i][j] = c.color
			}
		}
	}
	return out, nil
}

// ReadMarks implements MarkStore.
func (m *Memory) ReadMarks(rowStart, colStart, rowCount, colCount int) ([][]models.Mark, error) {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]models.Mark, rowCount)
	for i := range out {
		out[i] = make([]models.Mark, colCount)
		for j := range out[i] {
			out[i][j] = m.get(rowStart+i, colStart+j).mark
		}
	}
	return out, nil
}

// WriteRegion implements Store.
func (m *Memory) WriteRegion(rowStart, colStart int, rows [][]models.Value) error {
	if err := checkRegion(rowStart, colStart, len(rows), 0); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range rows {
		for j, v := range row {
			m.set(rowStart+i, colStart+j, func(c *memCell) { c.value = v })
		}
	}
	return nil
}

// WriteMarks implements MarkStore.
func (m *Memory) WriteMarks(rowStart, colStart int, marks [][]models.Mark) error {
	if err := checkRegion(rowStart, colStart, len(marks), 0); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range marks {
		for j, mk := range row {
			m.set(rowStart+i, colStart+j, func(c *memCell) {
				c.mark = mk
				c.color = ""
			})
		}
	}
	return nil
}

// SetBackground implements Store. Yellow fills become pending marks.
func (m *Memory) SetBackground(rowStart, colStart, rowCount, colCount int, color string) error {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mark := MarkFromColor(color)
	for i := 0; i < rowCount; i++ {
		for j := 0; j < colCount; j++ {
			m.set(rowStart+i, colStart+j, func(c *memCell) {
				c.mark = mark
				if mark.Highlighted() {
					c.color = ""
				} else {
					c.color = color
				}
			})
		}
	}
	return nil
}

// DeleteRow implements Store.
func (m *Memory) DeleteRow(row int) error {
	if row < 1 {
		return fmt.Errorf("%w: row %d", ErrOutOfRange, row)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if row > len(m.cells) {
		return nil
	}
	m.cells = append(m.cells[:row-1], m.cells[row:]...)
	return nil
}

// LastDataRow implements Store.
func (m *Memory) LastDataRow() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.cells) - 1; i >= 0; i-- {
		for _, c := range m.cells[i] {
			if !c.value.IsEmpty() {
				return i + 1, nil
			}
		}
	}
	return 0, nil
}

// LastDataColumn implements Store.
func (m *Memory) LastDataColumn() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	last := 0
	for _, row := range m.cells {
		for j := len(row) - 1; j >= last; j-- {
			if !row[j].value.IsEmpty() {
				last = j + 1
				break
			}
		}
	}
	return last, nil
}

// MergeCells implements CellMerger by recording the merged region.
func (m *Memory) MergeCells(rowStart, colStart, rowCount, colCount int) error {
	if err := checkRegion(rowStart, colStart, rowCount, colCount); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.merges = append(m.merges, models.Region{
		R1: rowStart,
		C1: colStart,
		R2: rowStart + rowCount - 1,
		C2: colStart + colCount - 1,
	})
	return nil
}

// Merges returns the regions merged so far.
func (m *Memory) Merges() []models.Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Region(nil), m.merges...)
}

// Value returns a single cell value.
func (m *Memory) Value(row, col int) models.Value {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(row, col).value
}

// Mark returns a single cell's highlight state.
func (m *Memory) Mark(row, col int) models.Mark {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(row, col).mark
}

// Rows returns a copy of all values up to the last populated row and column.
func (m *Memory) Rows() [][]models.Value {
	lastRow, _ := m.LastDataRow()
	lastCol, _ := m.LastDataColumn()
	rows, _ := m.ReadRegion(1, 1, lastRow, lastCol)
	return rows
}

func (m *Memory) get(row, col int) memCell {
	if row < 1 || row > len(m.cells) {
		return memCell{}
	}
	r := m.cells[row-1]
	if col < 1 || col > len(r) {
		return memCell{}
	}
	return r[col-1]
}

func (m *Memory) set(row, col int, fn func(*memCell)) {
	for len(m.cells) < row {
		m.cells = append(m.cells, nil)
	}
	r := m.cells[row-1]
	for len(r) < col {
		r = append(r, memCell{})
	}
	fn(&r[col-1])
	m.cells[row-1] = r
}
