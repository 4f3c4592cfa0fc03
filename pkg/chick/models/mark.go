package models

// Mark is the highlight state of a quantity cell.
type Mark uint8

const (
	// MarkNone means the cell is not selected for shipment.
	MarkNone Mark = iota
	// MarkPending means the cell is selected for shipment.
	MarkPending
	// MarkCompleted means the cell was matched against the ledger.
	MarkCompleted
)

// Highlighted reports whether the cell counts as selected.
func (m Mark) Highlighted() bool {
	return m != MarkNone
}

func (m Mark) String() string {
	switch m {
	case MarkPending:
		return "pending"
	case MarkCompleted:
		return "completed"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
