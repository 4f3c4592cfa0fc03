package sheet

import (
	"strings"

	"github.com/chobyoungjae/chick/pkg/chick/models"
)

// Yellow is the fill used to display a highlighted cell.
const Yellow = "#FFFF00"

var yellowVariants = []string{
	"#FFFF00",
	"#FFFFFF00", // with alpha
	"#FF0",
	"YELLOW",
}

// IsYellow reports whether a fill colour string means "highlighted".
// Hex case, alpha prefixes and the colour name are all accepted.
func IsYellow(color string) bool {
	if color == "" {
		return false
	}
	normalized := strings.ToUpper(strings.TrimSpace(color))
	for _, y := range yellowVariants {
		if normalized == y {
			return true
		}
	}
	return strings.Contains(normalized, "FFFF00")
}

// MarkFromColor converts a fill colour into a highlight state.
func MarkFromColor(color string) models.Mark {
	if IsYellow(color) {
		return models.MarkPending
	}
	return models.MarkNone
}

// ColorOf returns the display fill for a highlight state.
func ColorOf(m models.Mark) string {
	if m.Highlighted() {
		return Yellow
	}
	return ""
}
