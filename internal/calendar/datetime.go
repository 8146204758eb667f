package calendar

import (
	"fmt"
	"time"

	"github.com/paveg/scmframe/internal/errors"
)

// DateTime is a calendar date-time. Its fields are interpreted in Calendar.
type DateTime struct {
	Year       int
	Month      int
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	Calendar   Calendar
}

// New creates a validated DateTime in the given calendar
func New(cal Calendar, year, month, day, hour, minute, second int) (DateTime, error) {
	d := DateTime{
		Year: year, Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second,
		Calendar: cal,
	}
	if err := d.Validate(); err != nil {
		return DateTime{}, err
	}
	return d, nil
}

// Date returns midnight of year-month-day in the standard calendar without validation
func Date(year, month, day int) DateTime {
	return DateTime{Year: year, Month: month, Day: day, Calendar: Standard}
}

// In returns a copy of d whose fields are interpreted in cal
func (d DateTime) In(cal Calendar) DateTime {
	d.Calendar = cal
	return d
}

// FromTime converts a time.Time to a DateTime in the proleptic Gregorian calendar.
// The time is converted to UTC first.
func FromTime(t time.Time) DateTime {
	t = t.UTC()
	return DateTime{
		Year:       t.Year(),
		Month:      int(t.Month()),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
		Calendar:   ProlepticGregorian,
	}
}

// Validate checks that every field exists in the DateTime's calendar
func (d DateTime) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return errors.NewConstructionError("DateTime", fmt.Sprintf("month %d out of range in %s", d.Month, d))
	}
	if d.Day < 1 || d.Day > d.Calendar.DaysInMonth(d.Year, d.Month) {
		return errors.NewConstructionError("DateTime",
			fmt.Sprintf("day %d does not exist in %04d-%02d for calendar %s", d.Day, d.Year, d.Month, d.Calendar))
	}
	if d.Calendar == Standard && d.Year == 1582 && d.Month == 10 && d.Day > 4 && d.Day < 15 {
		return errors.NewConstructionError("DateTime", fmt.Sprintf("%s falls in the Julian/Gregorian gap", d))
	}
	if d.Hour < 0 || d.Hour > 23 || d.Minute < 0 || d.Minute > 59 || d.Second < 0 || d.Second > 59 {
		return errors.NewConstructionError("DateTime", fmt.Sprintf("invalid time of day in %s", d))
	}
	if d.Nanosecond < 0 || d.Nanosecond >= int(time.Second) {
		return errors.NewConstructionError("DateTime", fmt.Sprintf("invalid nanosecond %d", d.Nanosecond))
	}
	return nil
}

// Time converts d field-wise to a UTC time.Time (proleptic Gregorian).
// Dates that do not exist in the Gregorian calendar (e.g. 30 February from a
// 360 day calendar) are an error.
func (d DateTime) Time() (time.Time, error) {
	g := d.In(ProlepticGregorian)
	if err := g.Validate(); err != nil {
		return time.Time{}, errors.NewConstructionError("DateTime",
			fmt.Sprintf("%s (%s) has no proleptic Gregorian equivalent", d, d.Calendar))
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, time.UTC), nil
}

// Equal reports whether the calendar fields of d and o match, regardless of
// which calendar produced them
func (d DateTime) Equal(o DateTime) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day &&
		d.Hour == o.Hour && d.Minute == o.Minute && d.Second == o.Second &&
		d.Nanosecond == o.Nanosecond
}

// Compare returns -1, 0 or +1 ordering d against o field by field
func (d DateTime) Compare(o DateTime) int {
	a := [7]int{d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond}
	b := [7]int{o.Year, o.Month, o.Day, o.Hour, o.Minute, o.Second, o.Nanosecond}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Before reports whether d is earlier than o
func (d DateTime) Before(o DateTime) bool { return d.Compare(o) < 0 }

// After reports whether d is later than o
func (d DateTime) After(o DateTime) bool { return d.Compare(o) > 0 }

// DayOfYear returns the 1-based day within the year
func (d DateTime) DayOfYear() int {
	return int(d.Calendar.days(d.Year, d.Month, d.Day)-d.Calendar.days(d.Year, 1, 1)) + 1
}

// secondOfDay returns the seconds elapsed since midnight
func (d DateTime) secondOfDay() int64 {
	return int64(d.Hour*3600 + d.Minute*60 + d.Second)
}

// Days returns the fractional number of days since 1970-01-01 of d's calendar
func (d DateTime) Days() float64 {
	whole := d.Calendar.days(d.Year, d.Month, d.Day) - d.Calendar.days(1970, 1, 1)
	return float64(whole) + (float64(d.secondOfDay())+float64(d.Nanosecond)/1e9)/secondsPerDay
}

// Seconds returns the number of seconds since 1970-01-01 of d's calendar
func (d DateTime) Seconds() float64 {
	whole := d.Calendar.days(d.Year, d.Month, d.Day) - d.Calendar.days(1970, 1, 1)
	return float64(whole*secondsPerDay+d.secondOfDay()) + float64(d.Nanosecond)/1e9
}

// YearFraction returns the year plus the elapsed fraction of that year
func (d DateTime) YearFraction() float64 {
	start := d.Calendar.days(d.Year, 1, 1)
	elapsed := float64(d.Calendar.days(d.Year, d.Month, d.Day)-start) +
		(float64(d.secondOfDay())+float64(d.Nanosecond)/1e9)/secondsPerDay
	return float64(d.Year) + elapsed/float64(d.Calendar.DaysInYear(d.Year))
}

// AddDays moves d by n whole days along its calendar
func (d DateTime) AddDays(n int) DateTime {
	y, m, day := d.Calendar.fromDays(d.Calendar.days(d.Year, d.Month, d.Day) + int64(n))
	d.Year, d.Month, d.Day = y, m, day
	return d
}

// AddSeconds moves d by n seconds along its calendar
func (d DateTime) AddSeconds(n int64) DateTime {
	total := d.secondOfDay() + n
	dayShift := floorDiv64(total, secondsPerDay)
	rem := total - dayShift*secondsPerDay
	d = d.AddDays(int(dayShift))
	d.Hour = int(rem / 3600)
	d.Minute = int(rem % 3600 / 60)
	d.Second = int(rem % 60)
	return d
}

// WithDate returns d at the given year, month and day, keeping the time of day
func (d DateTime) WithDate(year, month, day int) DateTime {
	d.Year, d.Month, d.Day = year, month, day
	return d
}

// Midnight returns d with the time of day cleared
func (d DateTime) Midnight() DateTime {
	d.Hour, d.Minute, d.Second, d.Nanosecond = 0, 0, 0, 0
	return d
}

// String formats d as "YYYY-MM-DD HH:MM:SS"
func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}
