package scheduler

import (
	"strconv"
	"strings"
	"time"
)

var intervalUnits = map[byte]time.Duration{
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseIntervalDuration converts a compact interval such as "15m", "4h",
// "1d" or "1w" into a duration. The boolean is false for anything it
// cannot parse, including zero and negative counts.
func ParseIntervalDuration(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return 0, false
	}
	unit, ok := intervalUnits[s[len(s)-1]]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[:len(s)-1]))
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * unit, true
}
