package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Clock is a wall-clock time of day, stored as minutes after midnight.
type Clock int

// NewClock builds a Clock from an hour and minute, wrapping into a single day.
func NewClock(hour, minute int) Clock {
	return Clock(0).Add(hour*60 + minute)
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// ParseClockTime parses a strict "HH:mm" string. The bool is false when s is
// not a valid 24-hour time; callers are expected to fall back to s itself.
func ParseClockTime(s string) (Clock, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, false
	}
	if !allDigits(parts[0]) || !allDigits(parts[1]) {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return Clock(h*60 + m), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (c Clock) Hour() int    { return int(c) / 60 }
func (c Clock) Minute() int  { return int(c) % 60 }
func (c Clock) Minutes() int { return int(c) }

// Add shifts the clock by n minutes, wrapping across midnight in either direction.
func (c Clock) Add(n int) Clock {
	v := (int(c) + n) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return Clock(v)
}

func (c Clock) Before(o Clock) bool { return c < o }

// String renders the clock as zero-padded "HH:mm".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Display renders the clock as "h:mm AM/PM".
func (c Clock) Display() string {
	h := c.Hour()
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute(), period)
}

// AddOffsetMinutes shifts an "HH:mm" string by minutes. Input that does not
// parse is returned unchanged.
func AddOffsetMinutes(t string, minutes int) string {
	c, ok := ParseClockTime(t)
	if !ok {
		return t
	}
	return c.Add(minutes).String()
}

// FormatForDisplay converts "HH:mm" into "h:mm AM/PM". Input that does not
// parse is returned unchanged.
func FormatForDisplay(t string) string {
	c, ok := ParseClockTime(t)
	if !ok {
		return t
	}
	return c.Display()
}

// IsFridayDate reports whether a "YYYY-MM-DD" date falls on a Friday.
func IsFridayDate(date string) bool {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return false
	}
	return d.Weekday() == time.Friday
}

// stripSuffix drops descriptive suffixes such as " (BST)" that providers
// append to a time value; only the leading token is significant.
func stripSuffix(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.IndexAny(s, " ("); idx != -1 {
		s = s[:idx]
	}
	return s
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
