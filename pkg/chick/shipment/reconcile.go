// Package shipment marks ledger rows as shipped when the matching quantity
// cell on the order sheet is highlighted.
//
// A highlighted cell yields the key (order name in column A, product label
// from the header row, cell value). The first ledger row with an identical,
// complete key receives the completion marker.
package shipment

import (
	"sort"

	"github.com/chobyoungjae/chick/pkg/chick/models"
)

// Layout locates the order grid and the ledger on the sheet. Rows and
// columns are 1-based.
type Layout struct {
	// CheckColumn holds the per-row checkbox that highlights the row.
	CheckColumn int `yaml:"check_column"`
	// OrderColumn holds the orderer name.
	OrderColumn int `yaml:"order_column"`
	// DataStartColumn and DataEndColumn bound the quantity cells.
	DataStartColumn int `yaml:"data_start_column"`
	DataEndColumn   int `yaml:"data_end_column"`
	// DataStartRow and DataEndRow bound the order rows.
	DataStartRow int `yaml:"data_start_row"`
	DataEndRow   int `yaml:"data_end_row"`
	// HeaderRow holds the product labels.
	HeaderRow int `yaml:"header_row"`
	// MemoColumn triggers a row check when edited.
	MemoColumn int `yaml:"memo_column"`
	// LedgerStartRow is the first ledger row.
	LedgerStartRow int `yaml:"ledger_start_row"`
	// LedgerColumn holds the ledger order name; product, quantity and
	// status follow in the next three columns.
	LedgerColumn int `yaml:"ledger_column"`
	// CompletedMarker is written to the status of matched ledger rows.
	CompletedMarker string `yaml:"completed_marker"`
}

// DefaultLayout returns the layout of the daily order sheet: quantities in
// D7:AH198, product labels in row 6 and the ledger in BB:BE.
func DefaultLayout() Layout {
	return Layout{
		CheckColumn:     3,
		OrderColumn:     1,
		DataStartColumn: 4,
		DataEndColumn:   34,
		DataStartRow:    7,
		DataEndRow:      198,
		HeaderRow:       6,
		MemoColumn:      37,
		LedgerStartRow:  7,
		LedgerColumn:    54,
		CompletedMarker: "출고완료",
	}
}

// Width returns the number of quantity columns.
func (l Layout) Width() int {
	return l.DataEndColumn - l.DataStartColumn + 1
}

// DataRegion returns the quantity cells.
func (l Layout) DataRegion() models.Region {
	return models.Region{R1: l.DataStartRow, C1: l.DataStartColumn, R2: l.DataEndRow, C2: l.DataEndColumn}
}

// StatusColumn returns the ledger status column.
func (l Layout) StatusColumn() int {
	return l.LedgerColumn + 3
}

// InData reports whether row is an order row.
func (l Layout) InData(row int) bool {
	return l.DataRegion().ContainsRow(row)
}

// Snapshot is everything a reconciliation pass reads, taken before any
// write.
type Snapshot struct {
	// FirstRow is the sheet row of Values[0].
	FirstRow int
	// FirstCol is the sheet column of Values[i][0].
	FirstCol int
	// Orders holds the orderer name of each row.
	Orders []models.Value
	// Headers holds the product label of each column.
	Headers []models.Value
	// Values and Marks hold the quantity cells and their highlight state.
	Values [][]models.Value
	Marks  [][]models.Mark
	// Ledger lists the ledger rows in sheet order.
	Ledger []models.LedgerRow
}

// Candidate is a highlighted cell and the key derived from it.
type Candidate struct {
	Row int
	Col int
	Key models.Key
}

// Candidates returns the key of every highlighted cell, row by row.
func Candidates(s *Snapshot) []Candidate {
	var out []Candidate
	for i, marks := range s.Marks {
		for j, m := range marks {
			if !m.Highlighted() {
				continue
			}
			out = append(out, Candidate{
				Row: s.FirstRow + i,
				Col: s.FirstCol + j,
				Key: models.Key{
					Order:    at(s.Orders, i),
					Product:  at(s.Headers, j),
					Quantity: at(row(s.Values, i), j),
				},
			})
		}
	}
	return out
}

// Match returns the index of the first ledger row matching key, or -1.
func Match(ledger []models.LedgerRow, key models.Key) int {
	if !key.Complete() {
		return -1
	}
	for i, l := range ledger {
		if l.Matches(key) {
			return i
		}
	}
	return -1
}

// Reconcile pairs every highlighted cell with the first matching ledger
// row. Cells without a match are left out. Two cells may complete the same
// ledger row.
func Reconcile(s *Snapshot) []models.Match {
	var matches []models.Match
	for _, c := range Candidates(s) {
		i := Match(s.Ledger, c.Key)
		if i < 0 {
			continue
		}
		matches = append(matches, models.Match{
			Row:       c.Row,
			Col:       c.Col,
			Key:       c.Key,
			LedgerRow: s.Ledger[i].Row,
		})
	}
	return matches
}

// ClearCandidates derives the keys a row would match from its raw values:
// one key per positive numeric cell, regardless of highlight state.
func ClearCandidates(order models.Value, headers, values []models.Value) []models.Key {
	var keys []models.Key
	for j, v := range values {
		if !v.Positive() {
			continue
		}
		keys = append(keys, models.Key{Order: order, Product: at(headers, j), Quantity: v})
	}
	return keys
}

// ClearTargets returns the sheet rows of every ledger row matching any of
// keys, in ascending order.
func ClearTargets(ledger []models.LedgerRow, keys []models.Key) []int {
	seen := make(map[int]bool)
	var rows []int
	for _, k := range keys {
		for _, l := range ledger {
			if l.Matches(k) && !seen[l.Row] {
				seen[l.Row] = true
				rows = append(rows, l.Row)
			}
		}
	}
	sort.Ints(rows)
	return rows
}

// HighlightMarks returns the marks a checked row receives: pending for
// positive numbers, none for everything else.
func HighlightMarks(values []models.Value) []models.Mark {
	marks := make([]models.Mark, len(values))
	for j, v := range values {
		if v.Positive() {
			marks[j] = models.MarkPending
		}
	}
	return marks
}

func at(vals []models.Value, i int) models.Value {
	if i < 0 || i >= len(vals) {
		return models.Empty
	}
	return vals[i]
}

func row(rows [][]models.Value, i int) []models.Value {
	if i < 0 || i >= len(rows) {
		return nil
	}
	return rows[i]
}
