package subtitle

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const zeroTimestamp = "00:00:00,000"

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Negative, NaN and
// infinite values render as the zero timestamp.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return zeroTimestamp
	}

	// round on the total so 59.9996 carries into the next second
	totalMillis := int64(math.Round(seconds * 1000))

	hours := totalMillis / 3_600_000
	totalMillis %= 3_600_000
	minutes := totalMillis / 60_000
	totalMillis %= 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// FormatTimestampValue formats a loosely typed timestamp, see Seconds.
func FormatTimestampValue(v any) string {
	return FormatTimestamp(Seconds(v))
}

// Seconds normalizes a loosely typed timestamp to seconds. Numbers,
// numeric strings and colon-delimited strings ("MM:SS.fff",
// "HH:MM:SS,fff") are accepted; anything else is 0.
func Seconds(v any) float64 {
	var s float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		s = t
	case float32:
		s = float64(t)
	case int:
		s = float64(t)
	case int64:
		s = float64(t)
	case int32:
		s = float64(t)
	case uint:
		s = float64(t)
	case uint64:
		s = float64(t)
	case time.Duration:
		s = t.Seconds()
	case json.Number:
		s = ParseSeconds(string(t))
	case string:
		s = ParseSeconds(t)
	default:
		return 0
	}
	return sanitizeSeconds(s)
}

// ParseSeconds parses a numeric or colon-delimited timestamp string.
// Unparseable input yields 0.
func ParseSeconds(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0
		}
		return sanitizeSeconds(v)
	}

	parts := strings.Split(s, ":")
	var hours, minutes int
	var secField string
	var err error

	switch len(parts) {
	case 2:
		minutes, err = strconv.Atoi(strings.TrimSpace(parts[0]))
		secField = parts[1]
	case 3:
		hours, err = strconv.Atoi(strings.TrimSpace(parts[0]))
		if err == nil {
			minutes, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		}
		secField = parts[2]
	default:
		return 0
	}
	if err != nil {
		return 0
	}

	secs, err := strconv.ParseFloat(
		strings.Replace(strings.TrimSpace(secField), ",", ".", 1),
		64,
	)
	if err != nil {
		return 0
	}

	return sanitizeSeconds(float64(hours)*3600 + float64(minutes)*60 + secs)
}

func sanitizeSeconds(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return 0
	}
	return s
}
