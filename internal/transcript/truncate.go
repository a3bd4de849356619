package transcript

import (
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "…"

// Truncate NFC-normalizes s and limits it to limit runes, appending Ellipsis
// when anything was cut. A limit of zero or less returns s normalized.
func Truncate(s string, limit int) string {
	s = norm.NFC.String(s)
	if limit <= 0 {
		return s
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + Ellipsis
		}
		count++
	}
	return s
}
