package transport

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDuration accepts the two wire forms spec.md §6 allows for
// durations: "HH:MM:SS" or a bare number of seconds (as a float).
func parseDuration(s string) (time.Duration, error) {
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return 0, fmt.Errorf("transport: malformed HH:MM:SS duration %q", s)
		}
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, err
		}
		sec, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec*float64(time.Second)), nil
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("transport: malformed duration %q: %w", s, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
