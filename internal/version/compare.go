// Package version holds the pure helpers that decide whether a vendor
// release is new: pulling the version token out of a download URL and
// ordering dotted numeric version strings.
package version

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Compare orders two dotted numeric versions. It returns -1 when a < b,
// 1 when a > b and 0 when they are equal. Missing trailing segments count
// as 0, so "1.2" and "1.2.0" are equal. A segment that is not a
// non-negative integer also counts as 0; a numeric segment too large for
// uint64 saturates at the maximum.
func Compare(a, b string) int {
	pa, pb := segments(a), segments(b)
	n := max(len(pa), len(pb))
	for i := 0; i < n; i++ {
		x, y := at(pa, i), at(pb, i)
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

// IsNewer reports whether candidate is strictly newer than current.
func IsNewer(current, candidate string) bool {
	return Compare(candidate, current) > 0
}

func segments(v string) []uint64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ".")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		switch {
		case errors.Is(err, strconv.ErrRange):
			n = math.MaxUint64
		case err != nil:
			n = 0
		}
		out[i] = n
	}
	return out
}

func at(s []uint64, i int) uint64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
