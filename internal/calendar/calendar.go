// Package calendar provides calendar-aware date-time values for climate model
// output. Besides the standard (mixed Julian/Gregorian) calendar it supports
// the idealised calendars used by models: proleptic Gregorian, no-leap
// (365 day), all-leap (366 day), 360 day and Julian.
//
// Years use astronomical numbering (year 0 exists).
package calendar

import (
	"fmt"
	"strings"

	"github.com/paveg/scmframe/internal/errors"
)

// Calendar identifies a calendar system
type Calendar int

const (
	// Standard is the mixed Julian/Gregorian calendar with the 1582-10-15 switch
	Standard Calendar = iota
	ProlepticGregorian
	NoLeap
	AllLeap
	Day360
	Julian
)

const (
	secondsPerDay = 86400
	// jdnGregorianStart is the Julian day number of 1582-10-15
	jdnGregorianStart = 2299161
)

var calendarNames = map[Calendar]string{
	Standard:           "standard",
	ProlepticGregorian: "proleptic_gregorian",
	NoLeap:             "noleap",
	AllLeap:            "all_leap",
	Day360:             "360_day",
	Julian:             "julian",
}

var calendarAliases = map[string]Calendar{
	"standard":            Standard,
	"gregorian":           Standard,
	"proleptic_gregorian": ProlepticGregorian,
	"noleap":              NoLeap,
	"365_day":             NoLeap,
	"all_leap":            AllLeap,
	"366_day":             AllLeap,
	"360_day":             Day360,
	"julian":              Julian,
}

var cumulativeDays = [2][13]int{
	{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365},
	{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335, 366},
}

// ParseCalendar resolves a CF calendar name such as "noleap" or "360_day"
func ParseCalendar(name string) (Calendar, error) {
	if c, ok := calendarAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	return Standard, errors.NewSpecificationError("ParseCalendar", fmt.Sprintf("unknown calendar: %q", name))
}

// String returns the CF name of the calendar
func (c Calendar) String() string {
	if name, ok := calendarNames[c]; ok {
		return name
	}
	return fmt.Sprintf("calendar(%d)", int(c))
}

// IsLeap reports whether year is a leap year in this calendar
func (c Calendar) IsLeap(year int) bool {
	switch c {
	case NoLeap, Day360:
		return false
	case AllLeap:
		return true
	case Julian:
		return floorMod(year, 4) == 0
	case Standard:
		if year < 1582 {
			return floorMod(year, 4) == 0
		}
		return gregorianLeap(year)
	default:
		return gregorianLeap(year)
	}
}

// DaysInMonth returns the number of days of month in year
func (c Calendar) DaysInMonth(year, month int) int {
	if c == Day360 {
		return 30
	}
	leap := 0
	if c.IsLeap(year) {
		leap = 1
	}
	return cumulativeDays[leap][month] - cumulativeDays[leap][month-1]
}

// DaysInYear returns the number of days in year
func (c Calendar) DaysInYear(year int) int {
	switch {
	case c == Day360:
		return 360
	case c == Standard && year == 1582:
		return 355
	case c.IsLeap(year):
		return 366
	default:
		return 365
	}
}

func gregorianLeap(year int) bool {
	return floorMod(year, 4) == 0 && (floorMod(year, 100) != 0 || floorMod(year, 400) == 0)
}

// days returns the day count of (year, month, day) on the calendar's own
// continuous day scale. Only differences between two values are meaningful.
func (c Calendar) days(year, month, day int) int64 {
	switch c {
	case NoLeap:
		return int64(year)*365 + int64(cumulativeDays[0][month-1]+day-1)
	case AllLeap:
		return int64(year)*366 + int64(cumulativeDays[1][month-1]+day-1)
	case Day360:
		return int64(year)*360 + int64(30*(month-1)+day-1)
	case Julian:
		return julianJDN(year, month, day)
	case Standard:
		if jdn := gregorianJDN(year, month, day); jdn >= jdnGregorianStart {
			return jdn
		}
		return julianJDN(year, month, day)
	default:
		return gregorianJDN(year, month, day)
	}
}

// fromDays is the inverse of days
func (c Calendar) fromDays(n int64) (year, month, day int) {
	switch c {
	case NoLeap:
		return fixedYearFromDays(n, 365, cumulativeDays[0])
	case AllLeap:
		return fixedYearFromDays(n, 366, cumulativeDays[1])
	case Day360:
		y := floorDiv64(n, 360)
		r := int(n - y*360)
		return int(y), r/30 + 1, r%30 + 1
	case Julian:
		return julianFromJDN(n)
	case Standard:
		if n >= jdnGregorianStart {
			return gregorianFromJDN(n)
		}
		return julianFromJDN(n)
	default:
		return gregorianFromJDN(n)
	}
}

func fixedYearFromDays(n int64, length int64, cumulative [13]int) (int, int, int) {
	y := floorDiv64(n, length)
	r := int(n - y*length)
	month := 1
	for month < 12 && r >= cumulative[month] {
		month++
	}
	return int(y), month, r - cumulative[month-1] + 1
}

func gregorianJDN(year, month, day int) int64 {
	a := int64((14 - month) / 12)
	y := int64(year) + 4800 - a
	m := int64(month) + 12*a - 3
	return int64(day) + (153*m+2)/5 + 365*y + floorDiv64(y, 4) - floorDiv64(y, 100) + floorDiv64(y, 400) - 32045
}

func julianJDN(year, month, day int) int64 {
	a := int64((14 - month) / 12)
	y := int64(year) + 4800 - a
	m := int64(month) + 12*a - 3
	return int64(day) + (153*m+2)/5 + 365*y + floorDiv64(y, 4) - 32083
}

func gregorianFromJDN(jdn int64) (int, int, int) {
	a := jdn + 32044
	b := floorDiv64(4*a+3, 146097)
	c := a - floorDiv64(146097*b, 4)
	d := floorDiv64(4*c+3, 1461)
	e := c - floorDiv64(1461*d, 4)
	m := (5*e + 2) / 153
	day := e - (153*m+2)/5 + 1
	month := m + 3 - 12*(m/10)
	year := 100*b + d - 4800 + m/10
	return int(year), int(month), int(day)
}

func julianFromJDN(jdn int64) (int, int, int) {
	c := jdn + 32082
	d := floorDiv64(4*c+3, 1461)
	e := c - floorDiv64(1461*d, 4)
	m := (5*e + 2) / 153
	day := e - (153*m+2)/5 + 1
	month := m + 3 - 12*(m/10)
	year := d - 4800 + m/10
	return int(year), int(month), int(day)
}

func floorDiv64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
