package match

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Normalize trims surrounding whitespace and case-folds s so that
// "  Bihar " and "BIHAR" compare equal.
func Normalize(s string) string {
	return folder.String(strings.TrimSpace(s))
}
