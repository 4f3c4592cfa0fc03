package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/xuri/excelize/v2"
)

// ParseRange parses a range reference into its sheet name and bounds.
// Format: 'SheetName'!$A$1:$D$10, SheetName!A1:D10 or A1:D10. A single
// cell reference yields a one-cell region.
func ParseRange(ref string) (string, models.Region, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", models.Region{}, fmt.Errorf("empty range reference")
	}

	var sheetName string
	rangeStr := ref
	// Split by ! to separate sheet name and range
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		sheetName = strings.Trim(ref[:idx], "'")
		rangeStr = ref[idx+1:]
	}

	area, err := parseRangeToArea(rangeStr)
	if err != nil {
		return "", models.Region{}, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	return sheetName, area, nil
}

// parseRangeToArea parses a range string like $A$1:$D$10 to a Region.
func parseRangeToArea(rangeStr string) (models.Region, error) {
	// Remove $ signs
	rangeStr = strings.ReplaceAll(rangeStr, "$", "")

	parts := strings.Split(rangeStr, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return models.Region{}, fmt.Errorf("expected START:END")
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.Region{}, err
	}

	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return models.Region{}, err
	}

	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}

	return models.Region{
		R1: startRow,
		C1: startCol,
		R2: endRow,
		C2: endCol,
	}, nil
}

// FormatRange renders a region as an A1 range such as D7:AH198.
func FormatRange(r models.Region) string {
	start, err := excelize.CoordinatesToCellName(r.C1, r.R1)
	if err != nil {
		return ""
	}
	end, err := excelize.CoordinatesToCellName(r.C2, r.R2)
	if err != nil {
		return start
	}
	return start + ":" + end
}

// ColumnNumber converts a column letter (e.g. "BB") or a decimal string to a
// 1-based column number.
func ColumnNumber(name string) (int, error) {
	name = strings.TrimSpace(name)
	if n, err := strconv.Atoi(name); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("%w: column %d", ErrOutOfRange, n)
		}
		return n, nil
	}
	return excelize.ColumnNameToNumber(name)
}

// ColumnName converts a 1-based column number to its letter.
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return strconv.Itoa(col)
	}
	return name
}
