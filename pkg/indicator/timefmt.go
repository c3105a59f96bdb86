package indicator

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHHMM parses a 24h clock time "HH:mm" into minutes since midnight.
func ParseHHMM(s string) (int, error) {
	h, m, err := splitPair(s)
	if err != nil || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: time %q (want HH:mm)", ErrInvalidPayload, s)
	}
	return h*60 + m, nil
}

// ParseDurationHHMM parses an "HH:mm" duration into minutes. Hours are not
// limited to a day.
func ParseDurationHHMM(s string) (int, error) {
	h, m, err := splitPair(s)
	if err != nil || m > 59 {
		return 0, fmt.Errorf("%w: duration %q (want HH:mm)", ErrInvalidPayload, s)
	}
	return h*60 + m, nil
}

// ParseMMSS parses "mm:ss" into seconds, rejecting minutes above maxMinutes.
func ParseMMSS(s string, maxMinutes int) (int, error) {
	m, sec, err := splitPair(s)
	if err != nil || sec > 59 || m > maxMinutes {
		return 0, fmt.Errorf("%w: timing %q (want mm:ss up to %02d:59)", ErrInvalidPayload, s, maxMinutes)
	}
	return m*60 + sec, nil
}

// FormatHHMM renders minutes as "HH:mm".
func FormatHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatMMSS renders seconds as "mm:ss".
func FormatMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Elapsed returns the minutes from start to end, both "HH:mm".
// An end earlier than start is taken to be on the next day.
func Elapsed(start, end string) (int, error) {
	s, err := ParseHHMM(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseHHMM(end)
	if err != nil {
		return 0, err
	}
	if e < s {
		return 24*60 - s + e, nil
	}
	return e - s, nil
}

func splitPair(s string) (int, int, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(left) != 2 || len(right) != 2 {
		return 0, 0, fmt.Errorf("malformed %q", s)
	}
	a, err := strconv.Atoi(left)
	if err != nil || a < 0 {
		return 0, 0, fmt.Errorf("malformed %q", s)
	}
	b, err := strconv.Atoi(right)
	if err != nil || b < 0 {
		return 0, 0, fmt.Errorf("malformed %q", s)
	}
	return a, b, nil
}
