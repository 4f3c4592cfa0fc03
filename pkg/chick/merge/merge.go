// Package merge combines order rows that share a key.
//
// Three variants exist side by side:
//
//   - ByKey sums the value columns of rows with the same key into the first
//     such row and lists the others for deletion.
//   - AdjacentRuns finds runs of identical consecutive keys for display
//     merging; nothing is summed or deleted.
//   - SortConcat sorts by key and appends the fields of same-key rows to the
//     first row of the group, padding every row to the same width.
//
// The functions here work on snapshots; Merger applies them to a sheet.
package merge

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chobyoungjae/chick/pkg/chick/models"
)

// ErrInvalidColumns indicates a key or value column outside the snapshot
// layout, or a value range that ends before it starts.
var ErrInvalidColumns = errors.New("invalid column range")

// Columns selects the key column and the summed value columns of a row.
// Offsets are 0-based within each snapshot row; ValueEnd is inclusive.
type Columns struct {
	Key        int
	ValueStart int
	ValueEnd   int
}

func (c Columns) validate() error {
	if c.Key < 0 || c.ValueStart < 0 || c.ValueEnd < c.ValueStart {
		return fmt.Errorf("%w: key=%d values=%d..%d", ErrInvalidColumns, c.Key, c.ValueStart, c.ValueEnd)
	}
	return nil
}

// Group is the set of rows sharing one non-empty key, in original order.
// Rows[0] is the surviving row.
type Group struct {
	Key  models.Value
	Rows []int
}

// Result is the outcome of ByKey.
type Result struct {
	// Groups partitions the non-empty-keyed rows, ordered by first occurrence.
	Groups []Group
	// Summed maps each surviving row of a duplicated key to its merged values.
	Summed map[int][]models.Value
	// Delete lists superseded rows, highest index first.
	Delete []int
}

// Duplicated returns the groups that have more than one row.
func (r *Result) Duplicated() []Group {
	var out []Group
	for _, g := range r.Groups {
		if len(g.Rows) > 1 {
			out = append(out, g)
		}
	}
	return out
}

// ByKey groups rows by the key column and sums the value columns of every
// group with two or more rows. Row indices in the result index into rows.
func ByKey(rows [][]models.Value, cols Columns) (*Result, error) {
	if err := cols.validate(); err != nil {
		return nil, err
	}

	res := &Result{Summed: make(map[int][]models.Value)}
	index := make(map[models.Value]int)
	for i, row := range rows {
		key := cell(row, cols.Key)
		if key.IsEmpty() {
			continue
		}
		if g, ok := index[key]; ok {
			res.Groups[g].Rows = append(res.Groups[g].Rows, i)
			continue
		}
		index[key] = len(res.Groups)
		res.Groups = append(res.Groups, Group{Key: key, Rows: []int{i}})
	}

	for _, g := range res.Groups {
		if len(g.Rows) < 2 {
			continue
		}
		summed := make([]models.Value, 0, cols.ValueEnd-cols.ValueStart+1)
		for col := cols.ValueStart; col <= cols.ValueEnd; col++ {
			column := make([]models.Value, len(g.Rows))
			for k, r := range g.Rows {
				column[k] = cell(rows[r], col)
			}
			summed = append(summed, Sum(column))
		}
		res.Summed[g.Rows[0]] = summed
		res.Delete = append(res.Delete, g.Rows[1:]...)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(res.Delete)))
	return res, nil
}

// Sum adds the numeric entries of values. Blanks, NaN and non-numeric text
// do not contribute. The result is blank only when nothing contributed; an
// explicit numeric zero is kept.
func Sum(values []models.Value) models.Value {
	var sum float64
	valid := false
	for _, v := range values {
		if f, ok := v.Float(); ok {
			sum += f
			valid = true
		}
	}
	if !valid {
		return models.Empty
	}
	return models.Number(sum)
}

// AdjacentRuns returns every maximal run of two or more identical,
// non-empty consecutive values.
func AdjacentRuns(values []models.Value) []models.Run {
	var runs []models.Run
	start := 0
	for i := 1; i <= len(values); i++ {
		if i < len(values) && values[i].Equal(values[start]) {
			continue
		}
		if n := i - start; n > 1 && !values[start].IsEmpty() {
			runs = append(runs, models.Run{Start: start, Length: n})
		}
		start = i
	}
	return runs
}

// SortConcat sorts rows ascending by the key column and concatenates the
// non-key fields of each same-key row onto the first row of its group. The
// key becomes the first field of every output row, and all rows are padded
// with blanks to the widest row.
func SortConcat(rows [][]models.Value, key int) ([][]models.Value, error) {
	if key < 0 {
		return nil, fmt.Errorf("%w: key=%d", ErrInvalidColumns, key)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sorted := make([][]models.Value, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return cell(sorted[i], key).Less(cell(sorted[j], key))
	})

	var out [][]models.Value
	var current []models.Value
	var currentKey models.Value
	for i, row := range sorted {
		k := cell(row, key)
		if i == 0 || !k.Equal(currentKey) {
			if current != nil {
				out = append(out, current)
			}
			currentKey = k
			current = []models.Value{k}
		}
		current = append(current, rest(row, key)...)
	}
	out = append(out, current)

	return Pad(out, 0), nil
}

// Pad extends every row with blanks to the widest row, or to width when
// that is larger.
func Pad(rows [][]models.Value, width int) [][]models.Value {
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for i, r := range rows {
		for len(r) < width {
			r = append(r, models.Empty)
		}
		rows[i] = r
	}
	return rows
}

func rest(row []models.Value, key int) []models.Value {
	out := make([]models.Value, 0, len(row))
	for i, v := range row {
		if i != key {
			out = append(out, v)
		}
	}
	return out
}

func cell(row []models.Value, col int) models.Value {
	if col < 0 || col >= len(row) {
		return models.Empty
	}
	return row[col]
}
