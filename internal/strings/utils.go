// Package strings provides common string utilities.
package strings

// TruncateRunes shortens a string to n runes with ellipsis. Truncating
// by rune count never splits a multi-byte character. If n < 4, uses
// n = 4 to ensure room for "...".
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n < 4 {
		n = 4
	}
	return string(runes[:n-3]) + "..."
}
