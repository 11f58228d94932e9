package subtitle

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{2.5, "00:00:02,500"},
		{61.001, "00:01:01,001"},
		{3599.999, "00:59:59,999"},
		{3600, "01:00:00,000"},
		{59.9996, "00:01:00,000"},
		{359999, "99:59:59,000"},
		{360000.25, "100:00:00,250"},
		{-1, "00:00:00,000"},
		{math.NaN(), "00:00:00,000"},
		{math.Inf(1), "00:00:00,000"},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.seconds, 'f', -1, 64), func(t *testing.T) {
			if got := FormatTimestamp(tt.seconds); got != tt.want {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	pattern := regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})$`)

	for s := 0.0; s <= 359999; s += 997.123 {
		stamp := FormatTimestamp(s)
		m := pattern.FindStringSubmatch(stamp)
		if m == nil {
			t.Fatalf("FormatTimestamp(%v) = %q, does not match HH:MM:SS,mmm", s, stamp)
		}

		got := clockSeconds(m[1:5])
		if math.Abs(got-s) > 0.001 {
			t.Errorf("round trip of %v gave %v via %q", s, got, stamp)
		}
	}
}

func TestFormatTimestampValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "00:00:00,000"},
		{"non-numeric string", "abc", "00:00:00,000"},
		{"numeric string", "2.5", "00:00:02,500"},
		{"minutes and seconds", "01:23.5", "00:01:23,500"},
		{"full clock with comma", "01:02:03,004", "01:02:03,004"},
		{"too many fields", "1:2:3:4", "00:00:00,000"},
		{"int", 90, "00:01:30,000"},
		{"json number", json.Number("1.25"), "00:00:01,250"},
		{"duration", 1500 * time.Millisecond, "00:00:01,500"},
		{"negative string", "-5", "00:00:00,000"},
		{"unsupported type", []int{1}, "00:00:00,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestampValue(tt.value); got != tt.want {
				t.Errorf("FormatTimestampValue(%#v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
