package domain

import (
	"strings"
	"time"
)

const isoLocalLayout = "2006-01-02 15:04:05"

// fallbackLayouts are tried, in order, when a value matches neither of the two
// primary layouts. Fractional seconds after the seconds field are accepted by
// every layout that has one.
var fallbackLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// NormalizeTimestamp parses a local timestamp in "YYYY-MM-DD HH:mm:ss" or
// "DD.MM.YYYY HH:mm:ss" form, falling back to a few general layouts. It
// reports false for empty input or anything it cannot parse.
func NormalizeTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if rewritten, ok := rewriteDotted(value); ok {
		value = rewritten
	}

	if t, err := time.Parse(isoLocalLayout, value); err == nil {
		return t, true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rewriteDotted turns "28.07.2019 20:20:00" into "2019-07-28 20:20:00".
// Only applies when the date part has exactly three dot-separated components
// and a time part follows after a space.
func rewriteDotted(value string) (string, bool) {
	datePart, timePart, ok := strings.Cut(value, " ")
	if !ok {
		return "", false
	}
	parts := strings.Split(datePart, ".")
	if len(parts) != 3 {
		return "", false
	}
	day, month, year := parts[0], parts[1], parts[2]
	if day == "" || month == "" || year == "" {
		return "", false
	}
	return year + "-" + pad2(month) + "-" + pad2(day) + " " + strings.TrimSpace(timePart), true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
