package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold returns the comparison form of a display string: NFC-normalised,
// Unicode case-folded and trimmed, with inner whitespace collapsed.
func Fold(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(folder.String(s)), " ")
}

// EqualFold reports whether a and b are equal under Fold.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ContainsFold reports whether needle occurs in haystack under Fold.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Fold(haystack), n)
}

// TrackKey is the identity used to de-duplicate and merge tracks by
// (artist, track).
func TrackKey(artist, track string) string {
	return Fold(artist) + "\x00" + Fold(track)
}
