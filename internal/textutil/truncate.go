package textutil

import "unicode/utf8"

// Truncate cuts s to at most max characters. It counts runes, so multi-byte
// text is never split mid-character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// Ellipsize is Truncate with a trailing "..." when text was dropped. The
// result, ellipsis included, never exceeds max characters.
func Ellipsize(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return Truncate(s, max)
	}
	return Truncate(s, max-3) + "..."
}
