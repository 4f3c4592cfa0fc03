package models

// Region represents cell coordinate bounds on a sheet.
type Region struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1" yaml:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1" yaml:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2" yaml:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2" yaml:"c2"`
}

// Rows returns the number of rows covered.
func (r Region) Rows() int {
	if r.R2 < r.R1 {
		return 0
	}
	return r.R2 - r.R1 + 1
}

// Cols returns the number of columns covered.
func (r Region) Cols() int {
	if r.C2 < r.C1 {
		return 0
	}
	return r.C2 - r.C1 + 1
}

// Valid reports whether the region is non-empty and 1-based.
func (r Region) Valid() bool {
	return r.R1 >= 1 && r.C1 >= 1 && r.R2 >= r.R1 && r.C2 >= r.C1
}

// ContainsRow reports whether row lies inside the region.
func (r Region) ContainsRow(row int) bool {
	return row >= r.R1 && row <= r.R2
}

// ClampRows limits the region to end at lastRow.
func (r Region) ClampRows(lastRow int) Region {
	if r.R2 > lastRow {
		r.R2 = lastRow
	}
	return r
}
