package olea

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationPattern accepts durations like "1d2h10m" with every part
// optional. The empty string matches and means no time at all.
var durationPattern = regexp.MustCompile(`^((\d+)d)?((\d+)h)?((\d+)m)?$`)

// ParseDuration converts a day/hour/minute literal to a duration.
// A day counts as 24 hours.
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var d time.Duration
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		d += time.Duration(n) * 24 * time.Hour
	}
	if m[4] != "" {
		n, _ := strconv.Atoi(m[4])
		d += time.Duration(n) * time.Hour
	}
	if m[6] != "" {
		n, _ := strconv.Atoi(m[6])
		d += time.Duration(n) * time.Minute
	}
	return d, nil
}
