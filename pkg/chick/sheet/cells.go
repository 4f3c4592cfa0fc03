package sheet

import (
	"strconv"

	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/xuri/excelize/v2"
)

// readCells reads every row of a sheet as raw strings and converts them to
// values. Rows and columns beyond the last populated cell are not returned.
// Text cells stay text even when they look numeric.
func readCells(f *excelize.File, sheetName string) ([][]models.Value, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	result := make([][]models.Value, len(rows))
	for rowIdx, row := range rows {
		result[rowIdx] = make([]models.Value, len(row))
		for colIdx, cellValue := range row {
			if cellValue == "" {
				continue
			}
			name, err := cellName(rowIdx+1, colIdx+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheetName, name)
			if err != nil {
				return nil, err
			}
			result[rowIdx][colIdx] = typedValue(typ, cellValue)
		}
	}
	return result, nil
}

// typedValue converts a raw cell string according to its stored type.
func typedValue(typ excelize.CellType, s string) models.Value {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return models.String(s)
	}
	return parseValue(s)
}

// parseValue attempts to parse a string value as a number.
// Returns a number for integers and decimals, the text otherwise.
func parseValue(s string) models.Value {
	if s == "" {
		return models.Empty
	}
	// Try integer first
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return models.Number(float64(i))
	}
	// Try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return models.Number(f)
	}
	return models.String(s)
}

// cellName converts 1-based coordinates to an A1 reference.
func cellName(row, col int) (string, error) {
	return excelize.CoordinatesToCellName(col, row)
}
