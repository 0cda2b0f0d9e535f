package reminder

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a free-text maintenance title into a comparable key:
// NFKC (full-width ASCII and half-width kana unified), Unicode case folding
// and collapsed whitespace. A Caser keeps state, so each call builds its own.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
