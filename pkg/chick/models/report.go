package models

// MergeReport summarizes a duplicate-row merge on a sheet.
type MergeReport struct {
	// RunID correlates the report with log lines.
	RunID string `json:"run_id"`
	// Sheet is the sheet name.
	Sheet string `json:"sheet"`
	// KeyColumn is the 1-based key column.
	KeyColumn int `json:"key_column"`
	// ValueStart is the first summed column (1-based).
	ValueStart int `json:"value_start"`
	// ValueEnd is the last summed column (1-based, inclusive).
	ValueEnd int `json:"value_end"`
	// Range is the summed region in A1 notation, e.g. D7:AG120.
	Range string `json:"range"`
	// MarkerColumn is where the end-marker header was found (0 if unused).
	MarkerColumn int `json:"marker_column,omitempty"`
	// Groups is the number of keys that had duplicates.
	Groups int `json:"groups"`
	// DeletedRows lists deleted sheet rows in deletion order.
	DeletedRows []int `json:"deleted_rows"`
	// DryRun is set when nothing was written.
	DryRun bool `json:"dry_run,omitempty"`
	// Skipped is set when the sheet was busy and the run was dropped.
	Skipped bool `json:"skipped,omitempty"`
}

// Run is a maximal span of identical, non-empty consecutive values.
type Run struct {
	// Start is the index of the first value of the run.
	Start int `json:"start"`
	// Length is the number of values in the run (>= 2).
	Length int `json:"length"`
}

// AdjacentReport summarizes a visual merge of adjacent key cells.
type AdjacentReport struct {
	RunID   string `json:"run_id"`
	Sheet   string `json:"sheet"`
	Column  int    `json:"column"`
	Runs    []Run  `json:"runs"`
	Skipped bool   `json:"skipped,omitempty"`
}

// ConcatReport summarizes a sort-and-concatenate rewrite.
type ConcatReport struct {
	RunID   string `json:"run_id"`
	Sheet   string `json:"sheet"`
	Rows    int    `json:"rows"`
	Width   int    `json:"width"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Match records a highlighted cell and the ledger row it completed.
type Match struct {
	// Row and Col locate the highlighted cell (1-based).
	Row int `json:"row"`
	Col int `json:"col"`
	// Key is the derived (order, product, quantity) triple.
	Key Key `json:"key"`
	// LedgerRow is the sheet row whose status was written.
	LedgerRow int `json:"ledger_row"`
}

// ShipmentReport summarizes a reconciliation or clear pass.
type ShipmentReport struct {
	RunID string `json:"run_id"`
	Sheet string `json:"sheet"`
	// Operation is check_all, check_row, highlight_row, clear_row or clear_highlights.
	Operation string `json:"operation"`
	// Row is the target row for row-scoped operations.
	Row int `json:"row,omitempty"`
	// Highlighted is the number of highlighted cells scanned.
	Highlighted int `json:"highlighted"`
	// Matches lists ledger rows marked complete.
	Matches []Match `json:"matches,omitempty"`
	// Cleared lists ledger rows whose status was blanked.
	Cleared []int `json:"cleared,omitempty"`
	// Failed counts per-cell writes that failed and were skipped.
	Failed int `json:"failed,omitempty"`
	// Skipped is set when the sheet was busy and the run was dropped.
	Skipped bool `json:"skipped,omitempty"`
}
