package core

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// FoldName returns the case-folded form of an identifier, used as the key of
// every case-insensitive lookup (catalog, grouping, suppression ids).
// ASCII names fold to lower case without allocating a Caser; a Caser is
// stateful, so the rest get one per call.
func FoldName(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	return cases.Fold().String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// EqualFold compares two identifiers case-insensitively.
func EqualFold(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return FoldName(a) == FoldName(b)
}

// JoinNameParts joins name parts with a separator that cannot occur in an identifier.
func JoinNameParts(parts []string) string {
	return strings.Join(parts, "\x00")
}
