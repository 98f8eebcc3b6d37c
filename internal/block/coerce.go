package block

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	leadingInt  = regexp.MustCompile(`^[+-]?\d+`)
	leadingDate = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`)
)

// String returns the trimmed value and whether it counts as present.
// An empty value is treated as absent.
func String(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, s != ""
}

// Int parses the leading integer literal of raw and clamps it to [min, max].
// Absent or unparsable input yields def.
func Int(raw string, def, min, max int) int {
	m := leadingInt.FindString(strings.TrimSpace(raw))
	if m == "" {
		return def
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Only overflow gets here; the sign still says which bound applies.
		if strings.HasPrefix(m, "-") {
			return min
		}
		return max
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// Date parses a leading YYYY-MM-DD style date (separators '-', '/' or '.').
// Trailing text such as a time of day or a note is ignored. Returns nil when
// no valid calendar date is found.
func Date(raw string) *time.Time {
	m := leadingDate.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range values (Feb 30 -> Mar 2); reject those.
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return nil
	}
	return &t
}
