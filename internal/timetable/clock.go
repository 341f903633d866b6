package timetable

import (
	"fmt"
	"strconv"
)

const (
	dayStart = "0000"
	dayEnd   = "2359"
)

// ToMinutes converts a 4-digit 24-hour "HHMM" string into minutes since midnight.
// The value must be well formed; callers validate at the boundary.
func ToMinutes(hhmm string) int {
	hours, _ := strconv.Atoi(hhmm[:2])
	minutes, _ := strconv.Atoi(hhmm[2:])
	return hours*60 + minutes
}

// FormatClock renders an "HHMM" string as a 12-hour clock time such as "9:40 AM".
func FormatClock(hhmm string) string {
	total := ToMinutes(hhmm)
	hours, minutes := total/60, total%60
	suffix := "AM"
	if hours >= 12 {
		suffix = "PM"
	}
	hours %= 12
	if hours == 0 {
		hours = 12
	}
	return fmt.Sprintf("%d:%02d %s", hours, minutes, suffix)
}

// ValidClock reports whether s is a zero-padded "HHMM" value between 0000 and 2359.
func ValidClock(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	hours, _ := strconv.Atoi(s[:2])
	minutes, _ := strconv.Atoi(s[2:])
	return hours < 24 && minutes < 60
}
