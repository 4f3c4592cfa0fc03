package chick

import (
	"errors"
	"fmt"

	"github.com/chobyoungjae/chick/pkg/chick/sheet"
)

// ErrFileNotFound indicates the workbook file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrSheetNotFound indicates the requested sheet does not exist in the workbook.
var ErrSheetNotFound = sheet.ErrSheetNotFound

// OperationError represents a failed operation on a sheet.
type OperationError struct {
	Sheet     string
	Operation string // "merge", "merge_adjacent", "concat", "check_all", "check_row", ...
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed on sheet %q: %v", e.Operation, e.Sheet, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError.
func NewOperationError(sheetName, operation string, err error) *OperationError {
	return &OperationError{
		Sheet:     sheetName,
		Operation: operation,
		Err:       err,
	}
}
