package models

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTimestamp converts seconds to the MM:SS display form used in frame
// metadata and search results.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ParseTimestamp converts an MM:SS string back to seconds.
func ParseTimestamp(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q: expected MM:SS", s)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 0 {
		return 0, fmt.Errorf("invalid minutes in timestamp %q", s)
	}
	sec, err := strconv.Atoi(parts[1])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid seconds in timestamp %q", s)
	}
	return m*60 + sec, nil
}
