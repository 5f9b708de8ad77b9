package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day stored as minutes after midnight.
// It is persisted and serialised as "HH:MM".
type ClockTime int

const minutesPerDay = 24 * 60

var errInvalidClock = errors.New("invalid time of day")

func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, errInvalidClock
	}
	return ClockTime(hour*60 + minute), nil
}

func MustClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClockTime accepts "HH:MM" and also "HH:MM:SS" as returned by Postgres time columns;
// seconds must be zero.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, errInvalidClock
	}
	for _, p := range parts {
		if len(p) != 2 {
			return 0, errInvalidClock
		}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, errInvalidClock
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errInvalidClock
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return 0, errInvalidClock
		}
	}
	return NewClockTime(hour, minute)
}

func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

func (c ClockTime) Add(d time.Duration) ClockTime {
	return c + ClockTime(d/time.Minute)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c ClockTime) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errInvalidClock
	}
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, errInvalidClock
	}
	return c.String(), nil
}

func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return c.UnmarshalText([]byte(v))
	case []byte:
		return c.UnmarshalText(v)
	case time.Time:
		*c = ClockTimeOf(v)
		return nil
	case nil:
		*c = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}
