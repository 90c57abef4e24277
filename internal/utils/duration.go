package utils

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// maxMillis is the longest span Millis can represent.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

var unitMillis = map[string]int64{
	"s": 1000,
	"m": 60 * 1000,
	"h": 60 * 60 * 1000,
	"d": 24 * 60 * 60 * 1000,
}

// ParseDuration converts strings like "15m" or "7d" into milliseconds.
// Anything else, including an empty string or a compound value such as
// "1h30m", yields 0, as does a value too long for a time.Duration.
func ParseDuration(s string) int64 {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	unit := unitMillis[m[2]]
	if err != nil || n > maxMillis/unit {
		return 0
	}
	return n * unit
}

// Millis turns a millisecond count into a time.Duration.
func Millis(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }
