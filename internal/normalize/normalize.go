// Package normalize converts raw CSV field values into typed, nullable
// values. Upstream extracts encode missing data inconsistently: numeric
// sentinels (-999999), blank strings, and the literal "Not Available" all
// mean NULL and must never reach the database as zeros.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinel is the HHS marker for a suppressed or missing metric value.
const Sentinel = -999999

// Float parses a 7-day-average metric column. Blank strings and the
// -999999 sentinel both map to nil, never to zero.
func Float(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	if f == Sentinel {
		return nil, nil
	}
	return &f, nil
}

// String maps blank/whitespace-only strings and the literal
// "Not Available" to nil.
func String(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "Not Available" {
		return nil
	}
	return &s
}

// GeoPoint splits a geocoded address of the form "POINT (<lon> <lat>)"
// into longitude and latitude. A blank value yields (nil, nil); anything
// else that does not match the format is a row-level error.
func GeoPoint(s string) (lon, lat *float64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, nil
	}

	inner, ok := strings.CutPrefix(s, "POINT (")
	if !ok {
		return nil, nil, fmt.Errorf("malformed geocoded point %q", s)
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return nil, nil, fmt.Errorf("malformed geocoded point %q", s)
	}

	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("malformed geocoded point %q", s)
	}

	lonV, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, nil, fmt.Errorf("malformed geocoded point %q: %w", s, err)
	}
	latV, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, nil, fmt.Errorf("malformed geocoded point %q: %w", s, err)
	}

	return &lonV, &latV, nil
}

// YesNo reports whether the value is a case-insensitive "yes". Absent or
// unrecognized values are false.
func YesNo(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}

// Rating parses a hospital overall rating. Digit-only strings inside
// [1,5] parse to an integer; everything else (including "Not Available",
// "0", "6", "abc") normalizes to nil. Out-of-range values are dropped,
// never clamped; the row still loads with a null rating.
func Rating(s string) *int32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil
	}
	if n < 1 || n > 5 {
		return nil
	}
	v := int32(n)
	return &v
}

// Date parses a load-critical date strictly against YYYY-MM-DD. Failures
// are fatal to the whole batch, not a per-row skip.
func Date(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
