package crawler

import (
	"regexp"
	"strconv"
)

// Case names carry a two-digit year suffix, e.g. "C-104/16 P" -> 16.
var yearSuffixRe = regexp.MustCompile(`.*/(\d+)`)

// Directory pages for cases from 1997 and older use a legacy layout the
// adapters cannot parse; those cases are skipped.
const oldestSupportedYear = 1998

// ToFullYear converts a two-digit year to a full year number. Endings above
// the threshold of 80 belong to the 1900s, the rest to the 2000s.
func ToFullYear(twoDigitYear string) (int, error) {
	ending, err := strconv.Atoi(twoDigitYear)
	if err != nil {
		return 0, err
	}
	if ending > 80 {
		return 1900 + ending, nil
	}
	return 2000 + ending, nil
}

// CaseYear extracts the year encoded in a case name. ok is false when the
// name carries no year suffix.
func CaseYear(name string) (int, bool) {
	m := yearSuffixRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	year, err := ToFullYear(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// Eligible reports whether a case's documents may be crawled at all.
func Eligible(year int) bool {
	return year >= oldestSupportedYear
}
