package sheet

import "github.com/chobyoungjae/chick/pkg/chick/models"

// findDataBounds finds the bounding box of non-empty cells.
// Returned indices are 0-based; -1 means the grid is empty.
func findDataBounds(rows [][]models.Value) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell.IsEmpty() {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if maxRow < 0 || rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}

	return
}

// UsedRange returns the region spanned by populated cells, and false when
// the store holds no data.
func UsedRange(s Store) (models.Region, bool, error) {
	lastRow, err := s.LastDataRow()
	if err != nil {
		return models.Region{}, false, err
	}
	lastCol, err := s.LastDataColumn()
	if err != nil {
		return models.Region{}, false, err
	}
	if lastRow == 0 || lastCol == 0 {
		return models.Region{}, false, nil
	}
	rows, err := s.ReadRegion(1, 1, lastRow, lastCol)
	if err != nil {
		return models.Region{}, false, err
	}
	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	if minRow < 0 {
		return models.Region{}, false, nil
	}
	return models.Region{R1: minRow + 1, C1: minCol + 1, R2: maxRow + 1, C2: maxCol + 1}, true, nil
}
