// Package version implements the major.minor.patch comparison behind the
// client update gate. Clients check /api/version on startup and block usage
// when they are older than the minimum required version.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Backend is the version reported by /api/version.
const Backend = "0.2.0"

// Parse splits a "major.minor.patch" string into its numeric fields. Missing
// trailing fields default to zero, so "1.2" parses as 1.2.0.
func Parse(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return out, fmt.Errorf("invalid version %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, fmt.Errorf("invalid version %q", s)
		}
		out[i] = n
	}
	return out, nil
}

// Compare returns -1, 0, or 1 when a is older than, equal to, or newer than b.
func Compare(a, b string) (int, error) {
	av, err := Parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := Parse(b)
	if err != nil {
		return 0, err
	}
	for i := 0; i < 3; i++ {
		if av[i] < bv[i] {
			return -1, nil
		}
		if av[i] > bv[i] {
			return 1, nil
		}
	}
	return 0, nil
}

// UpdateRequired reports whether clientVersion is older than minVersion.
func UpdateRequired(clientVersion, minVersion string) (bool, error) {
	cmp, err := Compare(clientVersion, minVersion)
	if err != nil {
		return false, err
	}
	return cmp < 0, nil
}
