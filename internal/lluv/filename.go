package lluv

import (
	"regexp"
	"strconv"
	"time"
)

// YYYY(-)MM(-)DD(-)(hh(:)(mm(:)(ss))), each separator is a single optional non-digit
var timestampPattern = regexp.MustCompile(`(\d{4})\D?(\d{2})\D?(\d{2})\D?(\d{2})?\D?(\d{2})?\D?(\d{2})?`)

// ParseTimestamp extracts the most precise date and time found in a file name,
// e.g. 2013-11-05 00:00 UTC for 'RDLv_HATY_2013_11_05_0000.ruv'. Year, month and
// day are required, time components are optional.
func ParseTimestamp(name string) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}

	// year, month, day, hour, minute, second
	var values [6]int
	var n int
	for _, group := range m[1:] {
		if group == "" {
			continue
		}
		v, err := strconv.Atoi(group)
		if err != nil {
			return time.Time{}, false
		}
		values[n] = v
		n++
	}

	t := time.Date(values[0], time.Month(values[1]), values[2], values[3], values[4], values[5], 0, time.UTC)

	// time.Date normalises out of range values, reject those instead
	if t.Year() != values[0] || int(t.Month()) != values[1] || t.Day() != values[2] ||
		t.Hour() != values[3] || t.Minute() != values[4] || t.Second() != values[5] {
		return time.Time{}, false
	}
	return t, true
}

// TrimTimestamp removes the timestamp found by ParseTimestamp from name, e.g.
// 'RDLv_HATY_ruv' for 'RDLv_HATY_2013_11_05_0000.ruv', trailing separators
// included. Files of the same site and type share the trimmed name.
func TrimTimestamp(name string) string {
	loc := timestampPattern.FindStringIndex(name)
	if loc == nil {
		return name
	}
	return name[:loc[0]] + name[loc[1]:]
}
