// Package calendar provides date-key arithmetic for the date dimension.
// Date keys are yyyymmdd integers (e.g. 20230101), a strictly monotonic
// encoding of the calendar date, so range and offset queries never need
// date parsing. Month shifting and period matching are built here by hand
// rather than relying on any engine-level time intelligence.
package calendar

import (
	"fmt"

	"github.com/brewline/brewline/pkg/types"
)

// DateKey is the surrogate key of a date dimension row: year*10000 +
// month*100 + day.
type DateKey int

// NewDateKey encodes a calendar date into its surrogate key.
func NewDateKey(year, month, day int) DateKey {
	return DateKey(year*10000 + month*100 + day)
}

// Year returns the year component of the key.
func (k DateKey) Year() int { return int(k) / 10000 }

// Month returns the month component of the key (1-12).
func (k DateKey) Month() int { return (int(k) / 100) % 100 }

// Day returns the day-of-month component of the key.
func (k DateKey) Day() int { return int(k) % 100 }

// Quarter returns the calendar quarter (1-4) of the key.
func (k DateKey) Quarter() int { return (k.Month()-1)/3 + 1 }

// Valid reports whether the key encodes an existing calendar date.
func (k DateKey) Valid() bool {
	y, m, d := k.Year(), k.Month(), k.Day()
	if y < 1 || m < 1 || m > 12 || d < 1 {
		return false
	}
	return d <= DaysInMonth(y, m)
}

// String formats the key as an ISO date.
func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year(), k.Month(), k.Day())
}

// DaysInMonth returns the number of days in the given month, accounting
// for leap years.
func DaysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
	return 0
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ShiftMonths moves the key by n calendar months, keeping the day of
// month where possible. When the target month is shorter, the day clamps
// to the last day of that month (standard month arithmetic: Mar 31 back
// one month is Feb 28).
func (k DateKey) ShiftMonths(n int) DateKey {
	total := k.Year()*12 + (k.Month() - 1) + n
	year := total / 12
	month := total%12 + 1
	if total < 0 && total%12 != 0 {
		// Go integer division truncates toward zero; normalize for
		// shifts that cross year zero.
		year--
		month += 12
	}

	day := k.Day()
	if max := DaysInMonth(year, month); day > max {
		day = max
	}
	return NewDateKey(year, month, day)
}

// Period is an inclusive date-key range.
type Period struct {
	From DateKey `json:"from"`
	To   DateKey `json:"to"`
}

// MonthPeriod returns the period covering a whole calendar month.
func MonthPeriod(year, month int) Period {
	return Period{
		From: NewDateKey(year, month, 1),
		To:   NewDateKey(year, month, DaysInMonth(year, month)),
	}
}

// PrevMonth returns the period shifted back by exactly one calendar
// month, clamping each endpoint's day of month. A full calendar month
// maps to the full prior month (February back from March covers all of
// February, and January back from February covers all of January).
func (p Period) PrevMonth() Period {
	if p.From.Day() == 1 && p.To.Day() == DaysInMonth(p.To.Year(), p.To.Month()) {
		prev := p.From.ShiftMonths(-1)
		return MonthPeriod(prev.Year(), prev.Month())
	}
	return Period{
		From: p.From.ShiftMonths(-1),
		To:   p.To.ShiftMonths(-1),
	}
}

// Contains reports whether the key falls inside the period.
func (p Period) Contains(k DateKey) bool {
	return k >= p.From && k <= p.To
}

// Valid reports whether both endpoints encode real dates in order.
func (p Period) Valid() bool {
	return p.From.Valid() && p.To.Valid() && p.From <= p.To
}

// Part-of-day hour boundaries. Hours before noon are morning, noon
// through late afternoon is afternoon, everything later is evening.
const (
	afternoonStartHour = 12
	eveningStartHour   = 17
)

// HourPartOfDay maps an hour-of-day bucket to its daypart.
func HourPartOfDay(hour int) types.PartOfDay {
	switch {
	case hour < afternoonStartHour:
		return types.Morning
	case hour < eveningStartHour:
		return types.Afternoon
	default:
		return types.Evening
	}
}

// HourLabel returns the display label for an hour bucket.
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
