// Package duration parses the human-readable lengths operators put in the
// maintenance tag, such as "30m", "12h" or "2w".
package duration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is matched by every InvalidDurationError
var ErrInvalidDuration = errors.New("invalid duration")

// secondsPerUnit maps unit letters to their length in seconds
var secondsPerUnit = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 3600,
	'd': 86400,
	'w': 604800,
}

// InvalidDurationError reports a duration string that cannot be parsed
type InvalidDurationError struct {
	Spec   string
	Reason string
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration %q: %s", e.Spec, e.Reason)
}

func (e *InvalidDurationError) Unwrap() error {
	return ErrInvalidDuration
}

// Parse converts a spec like "12h" into seconds. The unit letter is
// case-insensitive; the magnitude must be a positive integer.
func Parse(spec string) (int64, error) {
	s := strings.TrimSpace(spec)
	if len(s) < 2 {
		return 0, &InvalidDurationError{Spec: spec, Reason: "expected <number><unit>"}
	}

	unit := s[len(s)-1]
	if unit >= 'A' && unit <= 'Z' {
		unit += 'a' - 'A'
	}
	perUnit, ok := secondsPerUnit[unit]
	if !ok {
		return 0, &InvalidDurationError{Spec: spec, Reason: fmt.Sprintf("unknown unit %q", s[len(s)-1:])}
	}

	magnitude, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil {
		return 0, &InvalidDurationError{Spec: spec, Reason: "magnitude is not an integer"}
	}
	if magnitude <= 0 {
		return 0, &InvalidDurationError{Spec: spec, Reason: "magnitude must be positive"}
	}
	if magnitude > maxSeconds/perUnit {
		return 0, &InvalidDurationError{Spec: spec, Reason: "duration too large"}
	}

	return magnitude * perUnit, nil
}

// maxSeconds keeps results representable as a time.Duration
const maxSeconds = int64(1<<63-1) / int64(time.Second)

// ParseDuration is Parse returning a time.Duration
func ParseDuration(spec string) (time.Duration, error) {
	seconds, err := Parse(spec)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
