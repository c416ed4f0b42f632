package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day without time zone
// =============================================================================

// DateLayout is the only accepted literal form for dates.
const DateLayout = "2006-01-02"

// Date is a proleptic Gregorian calendar day stored as a day number counted
// from 1970-01-01. Arithmetic is plain integer arithmetic, so the same
// literal input always yields the same literal output regardless of the
// host's local time zone.
type Date struct {
	day int64
}

const secondsPerDay = 24 * 60 * 60

// NewDate builds a Date from its calendar components. Out-of-range
// components are normalized the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{day: time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay}
}

// ParseDate accepts exactly YYYY-MM-DD. Anything else, including
// impossible days such as 2025-02-30, is an error rather than coerced.
func ParseDate(s string) (Date, error) {
	if len(s) != len(DateLayout) {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	// time.Parse without a zone yields UTC.
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{day: t.Unix() / secondsPerDay}, nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.day < other.day }
func (d Date) After(other Date) bool         { return d.day > other.day }
func (d Date) Equal(other Date) bool         { return d.day == other.day }
func (d Date) BeforeOrEqual(other Date) bool { return d.day <= other.day }
func (d Date) AfterOrEqual(other Date) bool  { return d.day >= other.day }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{day: d.day + int64(n)} }

// Properties
func (d Date) toTime() time.Time     { return time.Unix(d.day*secondsPerDay, 0).UTC() }
func (d Date) Year() int             { return d.toTime().Year() }
func (d Date) Month() time.Month     { return d.toTime().Month() }
func (d Date) Day() int              { return d.toTime().Day() }
func (d Date) Weekday() time.Weekday { return d.toTime().Weekday() }
func (d Date) String() string        { return d.toTime().Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date %s: expected quoted YYYY-MM-DD", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns to - from in whole days (negative if to is earlier).
func DaysBetween(from, to Date) int { return int(to.day - from.day) }

// AbsDaysBetween is the unsigned day distance between two dates.
func AbsDaysBetween(a, b Date) int {
	n := DaysBetween(a, b)
	if n < 0 {
		return -n
	}
	return n
}

// =============================================================================
// TIME OF DAY
// =============================================================================

// TimeLayout is the only accepted literal form for clock times (24-hour).
const TimeLayout = "15:04"

// TimeOfDay is a wall-clock time with minute granularity.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts exactly HH:MM.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != len(TimeLayout) {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns minutes elapsed since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid time %s: expected quoted HH:MM", data)
	}
	parsed, err := ParseTimeOfDay(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
