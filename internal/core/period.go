package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Period selects the window analytics are computed over.
type Period string

// ParsePeriod accepts period names case-insensitively.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Daily, Weekly, Monthly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From Date
	To   Date
}

// Contains reports whether d lies in the range, both ends included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From.Time) && !d.After(r.To.Time)
}

func (r DateRange) String() string {
	return r.From.String() + ".." + r.To.String()
}

// Range returns the window of p containing anchor. Weeks run Monday to
// Sunday.
func (p Period) Range(anchor Date) (DateRange, error) {
	day := DateOf(anchor.Time)
	switch p {
	case Daily:
		return DateRange{From: day, To: day}, nil
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7 // days since Monday
		from := day.AddDays(-offset)
		return DateRange{From: from, To: from.AddDays(6)}, nil
	case Monthly:
		return day.YearMonth().Range(), nil
	}
	return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses YYYY-MM.
func ParseYearMonth(s string) (YearMonth, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(y)
	if err != nil || len(y) != 4 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	ym := YearMonth{Year: year, Month: time.Month(month)}
	if err := ym.Validate(); err != nil {
		return YearMonth{}, err
	}
	return ym, nil
}

func (ym YearMonth) Validate() error {
	if ym.Month < time.January || ym.Month > time.December {
		return ErrInvalidMonth
	}
	if ym.Year < 1 {
		return fmt.Errorf("invalid year %d", ym.Year)
	}
	return nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Range spans the first to the last day of the month.
func (ym YearMonth) Range() DateRange {
	first := NewDate(ym.Year, int(ym.Month), 1)
	return DateRange{From: first, To: first.AddDays(-1 + daysIn(ym))}
}

func (ym YearMonth) Contains(d Date) bool {
	return d.Year() == ym.Year && time.Month(d.Month()) == ym.Month
}

func daysIn(ym YearMonth) int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
