package util

// Truncate shortens s to at most max runes. The ellipsis marking the cut
// counts against the limit, so the result never exceeds max. User-visible
// error text goes through this so reports and chat replies stay readable.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
