// ABOUTME: Normalization of backend timestamps to millisecond-epoch time.Time
// ABOUTME: Accepts ISO strings, second-epoch, and millisecond-epoch numbers

package session

import (
	"strconv"
	"strings"
	"time"
)

// secondsThreshold separates second-epoch from millisecond-epoch values:
// anything below 1e12 is treated as seconds.
const secondsThreshold = 1e12

// NormalizeTimestamp converts a backend-supplied timestamp of unknown shape
// into a time.Time. Numbers (and numeric strings) below 1e12 are seconds,
// larger numbers are milliseconds; other strings are parsed as dates.
// Total failure yields the current time rather than an error.
func NormalizeTimestamp(value any) time.Time {
	switch v := value.(type) {
	case nil:
		return time.Now()
	case time.Time:
		return v
	case float64:
		return fromEpoch(v)
	case int64:
		return fromEpoch(float64(v))
	case int:
		return fromEpoch(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Now()
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(n)
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Now()
	default:
		return time.Now()
	}
}

func fromEpoch(n float64) time.Time {
	if n < secondsThreshold {
		return time.UnixMilli(int64(n * 1000))
	}
	return time.UnixMilli(int64(n))
}
