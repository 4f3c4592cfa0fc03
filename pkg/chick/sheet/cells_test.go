package sheet

import (
	"path/filepath"
	"testing"

	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "Key")
	f.SetCellValue(sheetName, "B1", "Q1")
	f.SetCellValue(sheetName, "C1", "Q2")
	f.SetCellValue(sheetName, "A2", "A")
	f.SetCellValue(sheetName, "B2", 1)
	f.SetCellValue(sheetName, "C2", 2)
	f.SetCellValue(sheetName, "A3", "B")
	f.SetCellValue(sheetName, "B3", 3)
	f.SetCellValue(sheetName, "C3", 4.5)
	f.SetCellValue(sheetName, "A4", "A")
	f.SetCellValue(sheetName, "B4", 5)

	tmpFile := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(tmpFile); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	return tmpFile
}

func TestWorkbookReadRegion(t *testing.T) {
	w, err := OpenWorkbook(newTestWorkbook(t), "")
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "Sheet1", w.Name())

	rows, err := w.ReadRegion(1, 1, 5, 4)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	if rows[0][0] != models.String("Key") {
		t.Errorf("Expected 'Key', got %v", rows[0][0])
	}
	if rows[1][1] != models.Number(1) {
		t.Errorf("Expected 1, got %v", rows[1][1])
	}
	if rows[2][2] != models.Number(4.5) {
		t.Errorf("Expected 4.5, got %v", rows[2][2])
	}
	// beyond the data
	assert.True(t, rows[3][2].IsEmpty())
	assert.True(t, rows[4][0].IsEmpty())
	assert.True(t, rows[0][3].IsEmpty())
}

func TestWorkbookBounds(t *testing.T) {
	w, err := OpenWorkbook(newTestWorkbook(t), "Sheet1")
	require.NoError(t, err)
	defer w.Close()

	lastRow, err := w.LastDataRow()
	require.NoError(t, err)
	assert.Equal(t, 4, lastRow)

	lastCol, err := w.LastDataColumn()
	require.NoError(t, err)
	assert.Equal(t, 3, lastCol)

	used, ok, err := UsedRange(w)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A1:C4", FormatRange(used))
}

func TestWorkbookWriteDeleteSave(t *testing.T) {
	path := newTestWorkbook(t)
	w, err := OpenWorkbook(path, "Sheet1")
	require.NoError(t, err)

	require.NoError(t, w.WriteRegion(2, 2, [][]models.Value{{models.Number(6), models.Empty}}))
	require.NoError(t, w.DeleteRow(4))
	require.NoError(t, w.Save())
	require.NoError(t, w.Close())

	w2, err := OpenWorkbook(path, "Sheet1")
	require.NoError(t, err)
	defer w2.Close()

	rows, err := w2.ReadRegion(2, 1, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, models.Row("A", 6, nil), rows[0])
	assert.Equal(t, models.Row("B", 3, 4.5), rows[1])
	assert.Equal(t, models.Row(nil, nil, nil), rows[2])

	lastRow, err := w2.LastDataRow()
	require.NoError(t, err)
	assert.Equal(t, 3, lastRow)
}

func TestWorkbookBackgrounds(t *testing.T) {
	w, err := OpenWorkbook(newTestWorkbook(t), "Sheet1")
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.SetBackground(2, 2, 1, 2, "yellow"))
	require.NoError(t, w.SetBackground(3, 2, 1, 1, "#00FF00"))

	colors, err := w.ReadBackgroundColors(2, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "", colors[0][0])
	assert.True(t, IsYellow(colors[0][1]), "got %q", colors[0][1])
	assert.True(t, IsYellow(colors[0][2]), "got %q", colors[0][2])
	assert.False(t, IsYellow(colors[1][1]), "got %q", colors[1][1])
	assert.Equal(t, "", colors[1][2])

	marks, err := ReadMarks(w, 2, 2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]models.Mark{{models.MarkPending, models.MarkPending}}, marks)

	require.NoError(t, ClearMarks(w, models.Region{R1: 2, C1: 2, R2: 2, C2: 3}))
	colors, err = w.ReadBackgroundColors(2, 2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"", ""}}, colors)
}

func TestWorkbookMergeCells(t *testing.T) {
	w, err := OpenWorkbook(newTestWorkbook(t), "Sheet1")
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.MergeCells(2, 1, 2, 1))

	merged, err := w.File().GetMergeCells("Sheet1")
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A2", merged[0].GetStartAxis())
	assert.Equal(t, "A3", merged[0].GetEndAxis())
}

func TestWorkbookKeepsNumericTextAsText(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellStr("Sheet1", "A1", "5"))
	require.NoError(t, f.SetCellInt("Sheet1", "A2", 5))
	require.NoError(t, f.SetCellFloat("Sheet1", "A3", 2.5, -1, 64))
	require.NoError(t, f.SetCellStr("Sheet1", "A4", "007"))
	path := filepath.Join(t.TempDir(), "typed.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	w, err := OpenWorkbook(path, "")
	require.NoError(t, err)
	defer w.Close()

	col, err := ReadColumn(w, 1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []models.Value{
		models.String("5"),
		models.Number(5),
		models.Number(2.5),
		models.String("007"),
	}, col)
	assert.False(t, col[0].Equal(col[1]))
}

func TestOpenWorkbookMissingSheet(t *testing.T) {
	_, err := OpenWorkbook(newTestWorkbook(t), "Nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected models.Value
	}{
		{"123", models.Number(123)},
		{"123.45", models.Number(123.45)},
		{"-100", models.Number(-100)},
		{"hello", models.String("hello")},
		{"", models.Empty},
	}

	for _, tt := range tests {
		result := parseValue(tt.input)
		if result != tt.expected {
			t.Errorf("parseValue(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}
