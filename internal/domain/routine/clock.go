package routine

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ClockLayout is the 24-hour "HH:MM" layout used for wake-up and bus times.
const ClockLayout = "15:04"

// ErrMalformedClock is returned for times that are not valid "HH:MM" values.
var ErrMalformedClock = errors.New("malformed HH:MM time")

// clockLength is the length of a canonical "HH:MM" value.
const clockLength = len(ClockLayout)

// ParseClock splits a canonical "HH:MM" value into hour and minute.
// Only the zero-padded form is accepted, since alarms match times as strings.
func ParseClock(value string) (int, int, error) {
	if len(value) != clockLength || value[2] != ':' || !isDigits(value[:2]) || !isDigits(value[3:]) {
		return 0, 0, fmt.Errorf("%q: %w", value, ErrMalformedClock)
	}

	hours, err := strconv.Atoi(value[:2])
	if err != nil || hours > 23 {
		return 0, 0, fmt.Errorf("%q: bad hour: %w", value, ErrMalformedClock)
	}

	minutes, err := strconv.Atoi(value[3:])
	if err != nil || minutes > 59 {
		return 0, 0, fmt.Errorf("%q: bad minute: %w", value, ErrMalformedClock)
	}

	return hours, minutes, nil
}

// isDigits reports whether s holds only ASCII digits.
func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// FormatClock renders t as "HH:MM" in its own location. Seconds are dropped.
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// ClockOn places an "HH:MM" value on the calendar day of day, in day's location.
func ClockOn(day time.Time, value string) (time.Time, error) {
	hours, minutes, err := ParseClock(value)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, day.Location()), nil
}

// LoadLocation resolves an IANA timezone name; empty and "Local" mean the system zone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	return loc, nil
}
