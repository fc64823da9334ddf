package utils

import (
	"strconv"
	"strings"
	"time"
)

// ParseHumanSize converts a human-readable size like "123.4 MB" into a byte
// count using binary multiples. The second return is false when the string
// does not follow the "<value> <unit>" shape or names an unknown unit; that is
// "unknown size", never an error.
func ParseHumanSize(s string) (uint64, bool) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, false
	}

	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}

	var multiplier float64
	switch strings.ToUpper(parts[1]) {
	case "B", "BYTES":
		multiplier = 1
	case "KB", "KIB":
		multiplier = 1 << 10
	case "MB", "MIB":
		multiplier = 1 << 20
	case "GB", "GIB":
		multiplier = 1 << 30
	default:
		return 0, false
	}

	return uint64(value * multiplier), true
}

// FormatEpoch renders epoch seconds as a local "2006-01-02 15:04:05"
// timestamp. A non-numeric input yields "", treated as an absent install date.
func FormatEpoch(s string) string {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ""
	}
	return time.Unix(secs, 0).Format("2006-01-02 15:04:05")
}
