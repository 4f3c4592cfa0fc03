// Package models defines data structures shared by the merge and shipment packages.
package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a cell value.
type Kind uint8

const (
	// KindEmpty is a blank cell.
	KindEmpty Kind = iota
	// KindString is a text cell.
	KindString
	// KindNumber is a numeric cell.
	KindNumber
)

// Value is a single cell value: empty, string, or number.
// The zero Value is empty. Values are comparable and usable as map keys.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

// Empty is the blank cell value.
var Empty = Value{}

// String returns a text value. An empty string yields Empty.
func String(s string) Value {
	if s == "" {
		return Empty
	}
	return Value{Kind: KindString, Str: s}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Of converts a Go value into a cell Value. Integers and floats become
// numbers, strings become text, nil becomes Empty. Anything else is
// formatted as text.
func Of(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Empty
	case Value:
		return x
	case string:
		return String(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case bool:
		if x {
			return String("TRUE")
		}
		return String("FALSE")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return Empty
		}
		return String(string(b))
	}
}

// Row builds a slice of Values from plain Go values.
func Row(vals ...interface{}) []Value {
	row := make([]Value, len(vals))
	for i, v := range vals {
		row[i] = Of(v)
	}
	return row
}

// IsEmpty reports whether the cell is blank.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty || (v.Kind == KindString && v.Str == "")
}

// IsNumber reports whether the cell holds a number.
func (v Value) IsNumber() bool {
	return v.Kind == KindNumber
}

// Equal reports exact equality. A string "5" never equals the number 5.
func (v Value) Equal(o Value) bool {
	if v.IsEmpty() || o.IsEmpty() {
		return v.IsEmpty() && o.IsEmpty()
	}
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == KindNumber {
		return v.Num == o.Num
	}
	return v.Str == o.Str
}

// Truthy reports whether the value is neither blank, zero, nor NaN.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case KindString:
		return v.Str != ""
	}
	return false
}

// Float returns the numeric value of the cell. Numbers are returned as is;
// text is parsed when it looks like a number. Blanks, NaN and other text
// report false.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) {
			return 0, false
		}
		return v.Num, true
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Positive reports whether the cell is a number greater than zero.
func (v Value) Positive() bool {
	return v.IsNumber() && v.Num > 0
}

// String formats the value for display and for writing to text stores.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	}
	return ""
}

// Interface returns the value as a plain Go value (nil, string or float64).
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return v.Str
	}
	return nil
}

// Less orders values for sorting: blanks first, then numbers, then text.
func (v Value) Less(o Value) bool {
	rank := func(x Value) int {
		switch {
		case x.IsEmpty():
			return 0
		case x.Kind == KindNumber:
			return 1
		}
		return 2
	}
	rv, ro := rank(v), rank(o)
	if rv != ro {
		return rv < ro
	}
	if v.Kind == KindNumber {
		return v.Num < o.Num
	}
	return v.Str < o.Str
}

// MarshalJSON encodes blanks as null, numbers as numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Of(raw)
	return nil
}
