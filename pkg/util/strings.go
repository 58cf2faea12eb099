package util

// Truncate shortens s to at most max runes, appending "..." when
// anything was cut. Rune-based so multi-byte text stays valid UTF-8.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
