// Package isoweek converts between calendar dates and ISO-8601 week numbers.
// All computations use UTC calendar dates and depend only on their inputs.
package isoweek

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWeek is returned for week numbers outside 1..53.
var ErrInvalidWeek = errors.New("invalid ISO week")

const day = 24 * time.Hour

// Range is the Monday..Sunday span of one ISO week.
type Range struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Days returns the whole-day distance between Start and End.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start) / day)
}

func date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return date(y, m, d)
}

// weekdayIndex maps Monday..Sunday to 0..6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// FirstMonday returns the Monday of week 1 of year: the week containing January 4th.
func FirstMonday(year int) time.Time {
	jan4 := date(year, time.January, 4)
	return jan4.AddDate(0, 0, -weekdayIndex(jan4))
}

// WeekDateRange returns the Monday and Sunday of the given week of year.
func WeekDateRange(week, year int) (Range, error) {
	if week < 1 || week > 53 {
		return Range{}, fmt.Errorf("%w: %d", ErrInvalidWeek, week)
	}
	start := FirstMonday(year).AddDate(0, 0, (week-1)*7)
	return Range{Start: start, End: start.AddDate(0, 0, 6)}, nil
}

// WeekNumber returns the ISO week number of t's calendar date: t is moved to
// the Thursday of its Monday-first week and counted from January 1st of that
// Thursday's year.
func WeekNumber(t time.Time) int {
	thu := thursdayOf(t)
	jan1 := date(thu.Year(), time.January, 1)
	days := float64(thu.Sub(jan1) / day)
	return int(math.Ceil((days + 1) / 7))
}

func thursdayOf(t time.Time) time.Time {
	d := truncate(t)
	return d.AddDate(0, 0, 3-weekdayIndex(d))
}

// WeeksInYear returns 52 or 53.
func WeeksInYear(year int) int {
	return WeekNumber(date(year, time.December, 28))
}

// ID identifies one ISO week, e.g. 2024-W05.
type ID struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// IDFor returns the ISO week containing t. The year is the year of that
// week's Thursday, so early-January dates may belong to the previous year.
func IDFor(t time.Time) ID {
	thu := thursdayOf(t)
	return ID{Year: thu.Year(), Week: WeekNumber(t)}
}

func (id ID) String() string {
	return fmt.Sprintf("%04d-W%02d", id.Year, id.Week)
}

// Range returns the dates covered by id.
func (id ID) Range() (Range, error) {
	return WeekDateRange(id.Week, id.Year)
}

// Valid reports whether id names a week that exists in its year.
func (id ID) Valid() bool {
	return id.Week >= 1 && id.Week <= WeeksInYear(id.Year)
}

// Before orders IDs chronologically.
func (id ID) Before(o ID) bool {
	if id.Year != o.Year {
		return id.Year < o.Year
	}
	return id.Week < o.Week
}

var idPattern = regexp.MustCompile(`^(\d{4})-?[Ww](\d{1,2})$`)

// ParseID accepts 2024-W05, 2024W5 and 2024-w05.
func ParseID(s string) (ID, error) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ID{}, fmt.Errorf("%w: %q (want YYYY-Www)", ErrInvalidWeek, s)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	id := ID{Year: year, Week: week}
	if !id.Valid() {
		return ID{}, fmt.Errorf("%w: %s (%d has %d weeks)", ErrInvalidWeek, s, year, WeeksInYear(year))
	}
	return id, nil
}
