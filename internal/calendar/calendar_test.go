package calendar

import (
	"testing"

	"github.com/brewline/brewline/pkg/types"
)

func TestDateKey_Components(t *testing.T) {
	k := NewDateKey(2023, 6, 15)
	if int(k) != 20230615 {
		t.Fatalf("expected 20230615, got %d", k)
	}
	if k.Year() != 2023 || k.Month() != 6 || k.Day() != 15 {
		t.Fatalf("component mismatch: %d-%d-%d", k.Year(), k.Month(), k.Day())
	}
	if k.Quarter() != 2 {
		t.Fatalf("expected Q2, got Q%d", k.Quarter())
	}
}

func TestDateKey_Monotonic(t *testing.T) {
	// Later dates must encode to strictly larger keys.
	a := NewDateKey(2023, 1, 31)
	b := NewDateKey(2023, 2, 1)
	c := NewDateKey(2023, 12, 31)
	d := NewDateKey(2024, 1, 1)
	if a >= b || c >= d {
		t.Fatalf("encoding not monotonic: %d %d %d %d", a, b, c, d)
	}
}

func TestDateKey_Valid(t *testing.T) {
	valid := []DateKey{NewDateKey(2023, 1, 1), NewDateKey(2024, 2, 29), NewDateKey(2023, 12, 31)}
	for _, k := range valid {
		if !k.Valid() {
			t.Errorf("%v should be valid", k)
		}
	}
	invalid := []DateKey{NewDateKey(2023, 2, 29), NewDateKey(2023, 13, 1), NewDateKey(2023, 4, 31), DateKey(0)}
	for _, k := range invalid {
		if k.Valid() {
			t.Errorf("%v should be invalid", k)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, days int
	}{
		{2023, 1, 31},
		{2023, 2, 28},
		{2024, 2, 29}, // leap year
		{2000, 2, 29}, // divisible by 400
		{1900, 2, 28}, // divisible by 100 but not 400
		{2023, 4, 30},
		{2023, 12, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.days {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.days)
		}
	}
}

func TestShiftMonths_Clamping(t *testing.T) {
	// Mar 31 back one month clamps to Feb 28 (non-leap).
	if got := NewDateKey(2023, 3, 31).ShiftMonths(-1); got != NewDateKey(2023, 2, 28) {
		t.Fatalf("expected 2023-02-28, got %v", got)
	}
	// Leap year: Mar 31 2024 back one month is Feb 29.
	if got := NewDateKey(2024, 3, 31).ShiftMonths(-1); got != NewDateKey(2024, 2, 29) {
		t.Fatalf("expected 2024-02-29, got %v", got)
	}
}

func TestShiftMonths_YearBoundary(t *testing.T) {
	if got := NewDateKey(2023, 1, 15).ShiftMonths(-1); got != NewDateKey(2022, 12, 15) {
		t.Fatalf("expected 2022-12-15, got %v", got)
	}
	if got := NewDateKey(2022, 12, 15).ShiftMonths(1); got != NewDateKey(2023, 1, 15) {
		t.Fatalf("expected 2023-01-15, got %v", got)
	}
	if got := NewDateKey(2023, 3, 10).ShiftMonths(-15); got != NewDateKey(2021, 12, 10) {
		t.Fatalf("expected 2021-12-10, got %v", got)
	}
}

func TestMonthPeriod(t *testing.T) {
	p := MonthPeriod(2023, 2)
	if p.From != NewDateKey(2023, 2, 1) || p.To != NewDateKey(2023, 2, 28) {
		t.Fatalf("unexpected period %v..%v", p.From, p.To)
	}
	if !p.Contains(NewDateKey(2023, 2, 14)) {
		t.Error("period should contain mid-month date")
	}
	if p.Contains(NewDateKey(2023, 3, 1)) {
		t.Error("period should not contain next month")
	}
}

func TestPeriod_PrevMonth(t *testing.T) {
	// A full month maps to the full prior month.
	p := MonthPeriod(2023, 3).PrevMonth()
	if p.From != NewDateKey(2023, 2, 1) || p.To != NewDateKey(2023, 2, 28) {
		t.Fatalf("unexpected prior period %v..%v", p.From, p.To)
	}
	// February back covers all of January, not a 28-day slice of it.
	p = MonthPeriod(2023, 2).PrevMonth()
	if p.From != NewDateKey(2023, 1, 1) || p.To != NewDateKey(2023, 1, 31) {
		t.Fatalf("unexpected prior period %v..%v", p.From, p.To)
	}
	// January rolls back into the prior year.
	p = MonthPeriod(2023, 1).PrevMonth()
	if p.From != NewDateKey(2022, 12, 1) || p.To != NewDateKey(2022, 12, 31) {
		t.Fatalf("unexpected prior period %v..%v", p.From, p.To)
	}
	// Partial spans shift per endpoint with day clamping.
	p = Period{From: NewDateKey(2023, 3, 15), To: NewDateKey(2023, 3, 31)}.PrevMonth()
	if p.From != NewDateKey(2023, 2, 15) || p.To != NewDateKey(2023, 2, 28) {
		t.Fatalf("unexpected prior period %v..%v", p.From, p.To)
	}
}

func TestHourPartOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want types.PartOfDay
	}{
		{6, types.Morning},
		{11, types.Morning},
		{12, types.Afternoon},
		{16, types.Afternoon},
		{17, types.Evening},
		{22, types.Evening},
	}
	for _, tt := range tests {
		if got := HourPartOfDay(tt.hour); got != tt.want {
			t.Errorf("HourPartOfDay(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestHourLabel(t *testing.T) {
	if got := HourLabel(9); got != "09:00" {
		t.Fatalf("expected 09:00, got %s", got)
	}
	if got := HourLabel(14); got != "14:00" {
		t.Fatalf("expected 14:00, got %s", got)
	}
}
