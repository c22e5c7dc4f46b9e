package calendar

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_DateKeyMonotonic validates that the yyyymmdd encoding
// orders exactly like the calendar dates it encodes, which is what makes
// range and offset queries on raw keys correct.
func TestProperty_DateKeyMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	dayGen := gen.Int64Range(0, 40000) // days offset from 1970-01-01, through ~2079

	properties.Property("key ordering matches date ordering", prop.ForAll(
		func(d1, d2 int64) bool {
			t1 := time.Unix(0, 0).UTC().AddDate(0, 0, int(d1))
			t2 := time.Unix(0, 0).UTC().AddDate(0, 0, int(d2))
			k1 := NewDateKey(t1.Year(), int(t1.Month()), t1.Day())
			k2 := NewDateKey(t2.Year(), int(t2.Month()), t2.Day())
			switch {
			case t1.Before(t2):
				return k1 < k2
			case t2.Before(t1):
				return k2 < k1
			default:
				return k1 == k2
			}
		},
		dayGen,
		dayGen,
	))

	properties.TestingRun(t)
}

// TestProperty_ShiftMonths validates the month-shift arithmetic that
// backs period-over-period queries.
func TestProperty_ShiftMonths(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("shifted keys are always valid dates", prop.ForAll(
		func(year, month, day, n int) bool {
			if max := DaysInMonth(year, month); day > max {
				day = max
			}
			return NewDateKey(year, month, day).ShiftMonths(n).Valid()
		},
		gen.IntRange(1990, 2090),
		gen.IntRange(1, 12),
		gen.IntRange(1, 31),
		gen.IntRange(-60, 60),
	))

	properties.Property("shift round-trips for days that never clamp", prop.ForAll(
		func(year, month, day, n int) bool {
			k := NewDateKey(year, month, day)
			return k.ShiftMonths(n).ShiftMonths(-n) == k
		},
		gen.IntRange(1990, 2090),
		gen.IntRange(1, 12),
		gen.IntRange(1, 28),
		gen.IntRange(-60, 60),
	))

	properties.Property("shifting by zero is the identity", prop.ForAll(
		func(year, month, day int) bool {
			if max := DaysInMonth(year, month); day > max {
				day = max
			}
			k := NewDateKey(year, month, day)
			return k.ShiftMonths(0) == k
		},
		gen.IntRange(1990, 2090),
		gen.IntRange(1, 12),
		gen.IntRange(1, 31),
	))

	properties.TestingRun(t)
}
