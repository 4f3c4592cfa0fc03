package sheet

import (
	"testing"

	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMemory() *Memory {
	return NewMemory("orders", [][]models.Value{
		models.Row("Key", "Q1", "Q2"),
		models.Row("A", 1, 2),
		models.Row("B", 3, 4),
		models.Row("A", 5, nil),
	})
}

func TestMemoryReadWrite(t *testing.T) {
	m := sampleMemory()

	rows, err := m.ReadRegion(2, 2, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]models.Value{
		models.Row(1, 2, nil),
		models.Row(3, 4, nil),
	}, rows)

	require.NoError(t, m.WriteRegion(6, 5, [][]models.Value{models.Row("x")}))
	assert.Equal(t, models.String("x"), m.Value(6, 5))

	lastRow, _ := m.LastDataRow()
	lastCol, _ := m.LastDataColumn()
	assert.Equal(t, 6, lastRow)
	assert.Equal(t, 5, lastCol)
}

func TestMemoryOutOfRange(t *testing.T) {
	m := sampleMemory()

	_, err := m.ReadRegion(0, 1, 1, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.ReadBackgroundColors(1, 0, 1, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, m.DeleteRow(0), ErrOutOfRange)
	assert.ErrorIs(t, m.SetBackground(1, 1, -1, 1, Yellow), ErrOutOfRange)
}

func TestMemoryDeleteRowShiftsUp(t *testing.T) {
	m := sampleMemory()

	require.NoError(t, m.DeleteRow(2))
	assert.Equal(t, models.String("B"), m.Value(2, 1))
	assert.Equal(t, models.String("A"), m.Value(3, 1))

	// past the end is a no-op
	require.NoError(t, m.DeleteRow(40))
	lastRow, _ := m.LastDataRow()
	assert.Equal(t, 3, lastRow)
}

func TestMemoryMarksProjectToColors(t *testing.T) {
	m := sampleMemory()

	require.NoError(t, m.SetBackground(2, 2, 1, 2, "#ffff00"))
	require.NoError(t, m.SetBackground(3, 2, 1, 1, "#00FF00"))
	require.NoError(t, m.WriteMarks(3, 3, [][]models.Mark{{models.MarkCompleted}}))

	assert.Equal(t, models.MarkPending, m.Mark(2, 2))
	assert.Equal(t, models.MarkPending, m.Mark(2, 3))
	assert.Equal(t, models.MarkNone, m.Mark(3, 2))
	assert.Equal(t, models.MarkCompleted, m.Mark(3, 3))

	colors, err := m.ReadBackgroundColors(2, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{Yellow, Yellow},
		{"#00FF00", Yellow},
	}, colors)

	require.NoError(t, ClearMarks(m, models.Region{R1: 2, C1: 2, R2: 3, C2: 3}))
	marks, err := ReadMarks(m, 2, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]models.Mark{{0, 0}, {0, 0}}, marks)
}

func TestMemoryMergeCells(t *testing.T) {
	m := sampleMemory()
	require.NoError(t, m.MergeCells(2, 1, 3, 1))
	assert.Equal(t, []models.Region{{R1: 2, C1: 1, R2: 4, C2: 1}}, m.Merges())
}

func TestWriteMarksThroughColors(t *testing.T) {
	// colorOnly hides the MarkStore methods of Memory.
	type colorOnly struct{ Store }
	m := sampleMemory()
	s := colorOnly{m}

	require.NoError(t, WriteMarks(s, 2, 2, [][]models.Mark{{models.MarkPending, models.MarkNone}}))
	marks, err := ReadMarks(s, 2, 2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]models.Mark{{models.MarkPending, models.MarkNone}}, marks)
}

func TestReadColumnAndRow(t *testing.T) {
	m := sampleMemory()

	col, err := ReadColumn(m, 2, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, models.Row("A", "B", "A", nil), col)

	row, err := ReadRow(m, 1, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, models.Row("Key", "Q1", "Q2"), row)
}
