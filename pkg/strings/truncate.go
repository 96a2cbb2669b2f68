package strings

import (
	"strings"
)

// DefaultCellMaxLen is the default maximum width for free-text table cells.
const DefaultCellMaxLen = 40

// MinTruncateLen is the smallest usable maxLen; anything shorter leaves no
// room for content plus "...".
const MinTruncateLen = 4

// Truncate collapses s onto a single line and cuts it to maxLen runes,
// appending "..." when anything was removed. Operates on runes so
// multi-byte characters are never split.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
