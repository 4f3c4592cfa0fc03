package merge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chobyoungjae/chick/pkg/chick/lock"
	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/chobyoungjae/chick/pkg/chick/sheet"
)

// orderSheet builds a sheet with the header in row 6 and orders from row 7.
func orderSheet(orders ...[]models.Value) *sheet.Memory {
	rows := make([][]models.Value, 5)
	rows = append(rows, row("이름", "연락처", "비고", "Egg", "Milk", "예약리스트"))
	rows = append(rows, orders...)
	return sheet.NewMemory("orders", rows)
}

func TestMergeDuplicates(t *testing.T) {
	mem := orderSheet(
		row("Kim", "010", "", 1, 2, "r1"),
		row("Lee", "011", "", 3, 4, "r2"),
		row("Kim", "010", "", 5, "", "r3"),
	)
	m := NewMerger(mem, nil, DefaultLayout(), nil)

	report, err := m.MergeDuplicates(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Groups)
	assert.Equal(t, []int{9}, report.DeletedRows)
	assert.Equal(t, 4, report.ValueStart)
	assert.Equal(t, 5, report.ValueEnd)
	assert.Equal(t, 6, report.MarkerColumn)
	assert.Equal(t, "D7:E9", report.Range)
	assert.NotEmpty(t, report.RunID)

	got, err := mem.ReadRegion(7, 1, 3, 6)
	require.NoError(t, err)
	want := [][]models.Value{
		row("Kim", "010", "", 6, 2, "r1"),
		row("Lee", "011", "", 3, 4, "r2"),
		row(nil, nil, nil, nil, nil, nil),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sheet mismatch (-want +got):\n%s", diff)
	}

	again, err := m.MergeDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, again.Groups)
	assert.Empty(t, again.DeletedRows)
}

func TestMergeDuplicatesDryRun(t *testing.T) {
	mem := orderSheet(
		row("Kim", "", "", 1, 2),
		row("Kim", "", "", 5, 1),
	)
	m := NewMerger(mem, nil, DefaultLayout(), nil)

	report, err := m.MergeDuplicates(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, []int{8}, report.DeletedRows)

	assert.Equal(t, models.Number(1), mem.Value(7, 4))
	assert.Equal(t, models.String("Kim"), mem.Value(8, 1))
}

func TestMergeDuplicatesPreconditions(t *testing.T) {
	tests := []struct {
		name   string
		store  *sheet.Memory
		layout Layout
		want   error
	}{
		{
			name:   "no data rows",
			store:  orderSheet(),
			layout: DefaultLayout(),
			want:   ErrNotEnoughRows,
		},
		{
			name:   "marker missing",
			store:  sheet.NewMemory("orders", append(make([][]models.Value, 6), row("Kim", "", "", 1))),
			layout: DefaultLayout(),
			want:   ErrHeaderNotFound,
		},
		{
			name:  "reversed range",
			store: orderSheet(row("Kim", "", "", 1)),
			layout: Layout{
				HeaderRow:        6,
				DataStartRow:     7,
				KeyColumn:        1,
				ValueStartColumn: 4,
				ValueEndColumn:   2,
			},
			want: ErrInvalidRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.store.Rows()
			_, err := NewMerger(tt.store, nil, tt.layout, nil).MergeDuplicates(context.Background(), false)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Equal(t, before, tt.store.Rows(), "sheet changed after a failed precondition")
		})
	}
}

func TestMergeDuplicatesBusy(t *testing.T) {
	lk := lock.New()
	release, err := lk.Acquire(context.Background(), 0)
	require.NoError(t, err)
	defer release()

	mem := orderSheet(row("Kim", "", "", 1), row("Kim", "", "", 1))
	m := NewMerger(mem, lk, DefaultLayout(), nil)
	m.SetWait(0)

	report, err := m.MergeDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, models.String("Kim"), mem.Value(8, 1))
}

// failingWrites rejects writes to one row.
type failingWrites struct {
	*sheet.Memory
	row int
}

func (f *failingWrites) WriteRegion(rowStart, colStart int, rows [][]models.Value) error {
	if rowStart == f.row {
		return errors.New("protected range")
	}
	return f.Memory.WriteRegion(rowStart, colStart, rows)
}

func TestMergeDuplicatesKeepsRowsWhenWriteFails(t *testing.T) {
	mem := orderSheet(
		row("Kim", "", "", 1),
		row("Lee", "", "", 2),
		row("Kim", "", "", 3),
		row("Lee", "", "", 4),
	)
	store := &failingWrites{Memory: mem, row: 7}
	m := NewMerger(store, nil, DefaultLayout(), nil)

	report, err := m.MergeDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, report.DeletedRows)
	assert.Equal(t, models.Number(6), mem.Value(8, 4))
	assert.Equal(t, models.String("Kim"), mem.Value(9, 1))
}

func TestMergeAdjacent(t *testing.T) {
	mem := sheet.NewMemory("list", [][]models.Value{
		row("name"),
		row("A"),
		row("A"),
		row("B"),
		row("C"),
		row("C"),
		row("C"),
	})
	m := NewMerger(mem, nil, DefaultLayout(), nil)

	report, err := m.MergeAdjacent(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []models.Run{{Start: 0, Length: 2}, {Start: 3, Length: 3}}, report.Runs)
	assert.Equal(t, []models.Region{
		{R1: 2, C1: 1, R2: 3, C2: 1},
		{R1: 5, C1: 1, R2: 7, C2: 1},
	}, mem.Merges())
	assert.Equal(t, models.String("A"), mem.Value(3, 1), "adjacent merge must not change values")
}

// plainStore hides the optional capabilities of Memory.
type plainStore struct {
	sheet.Store
}

func TestMergeAdjacentUnsupported(t *testing.T) {
	m := NewMerger(plainStore{sheet.NewMemory("list", nil)}, nil, DefaultLayout(), nil)
	_, err := m.MergeAdjacent(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrMergeUnsupported)
}

func TestConcatenate(t *testing.T) {
	mem := sheet.NewMemory("list", [][]models.Value{
		row("key", "v1", "v2"),
		row("B", 1, "x"),
		row("A", 2, "y"),
		row("B", 3, "z"),
	})
	m := NewMerger(mem, nil, DefaultLayout(), nil)

	report, err := m.Concatenate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 5, report.Width)

	want := [][]models.Value{
		row("key", "v1", "v2", nil, nil),
		row("A", 2, "y", nil, nil),
		row("B", 1, "x", 3, "z"),
	}
	if diff := cmp.Diff(want, mem.Rows()); diff != "" {
		t.Errorf("sheet mismatch (-want +got):\n%s", diff)
	}
}

// singleWrite accepts one WriteRegion call and rejects the rest.
type singleWrite struct {
	*sheet.Memory
	writes int
}

func (s *singleWrite) WriteRegion(rowStart, colStart int, rows [][]models.Value) error {
	s.writes++
	if s.writes > 1 {
		return errors.New("write quota exceeded")
	}
	return s.Memory.WriteRegion(rowStart, colStart, rows)
}

func TestConcatenateWritesOnce(t *testing.T) {
	mem := sheet.NewMemory("list", [][]models.Value{
		row("key", "v1"),
		row("B", 1),
		row("A", 2),
		row("B", 3),
		row("C", 4),
	})
	store := &singleWrite{Memory: mem}

	report, err := NewMerger(store, nil, DefaultLayout(), nil).Concatenate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, 3, report.Rows)

	assert.Equal(t, models.String("A"), mem.Value(2, 1))
	assert.Equal(t, models.Number(3), mem.Value(3, 3))
	assert.Equal(t, models.String("C"), mem.Value(4, 1))
	assert.True(t, mem.Value(5, 1).IsEmpty())
	assert.True(t, mem.Value(5, 2).IsEmpty())
}

func TestMergeDuplicatesWorkbookKeepsTextAndNumberKeysApart(t *testing.T) {
	f := excelize.NewFile()
	for cell, v := range map[string]interface{}{"A1": "Key", "B1": "Q1", "C1": "Q2", "B2": 1, "B3": 2, "B4": 4} {
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	require.NoError(t, f.SetCellStr("Sheet1", "A2", "5"))
	require.NoError(t, f.SetCellInt("Sheet1", "A3", 5))
	require.NoError(t, f.SetCellStr("Sheet1", "A4", "5"))
	path := filepath.Join(t.TempDir(), "keys.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	store, err := sheet.OpenWorkbook(path, "")
	require.NoError(t, err)
	defer store.Close()

	layout := Layout{HeaderRow: 1, DataStartRow: 2, KeyColumn: 1, ValueStartColumn: 2, ValueEndColumn: 3}
	report, err := NewMerger(store, nil, layout, nil).MergeDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Groups)
	assert.Equal(t, []int{4}, report.DeletedRows)

	got, err := store.ReadRegion(2, 1, 3, 2)
	require.NoError(t, err)
	want := [][]models.Value{
		{models.String("5"), models.Number(5)},
		{models.Number(5), models.Number(2)},
		{models.Empty, models.Empty},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}
