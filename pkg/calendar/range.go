package calendar

import (
	"errors"
	"fmt"
)

// MaxRangeMonths bounds the span of a queried date range.
const MaxRangeMonths = 12

var (
	// ErrRangeTooLong is returned when a range spans more than MaxRangeMonths.
	ErrRangeTooLong = errors.New("date range exceeds 12 months")
	// ErrRangeInverted is returned when From is after To.
	ErrRangeInverted = errors.New("date range start is after its end")
)

// Range is an inclusive span of calendar dates.
type Range struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// NewRange validates and builds a Range.
func NewRange(from, to Date) (Range, error) {
	if from.IsZero() || to.IsZero() {
		return Range{}, fmt.Errorf("%w: range bounds are required", ErrInvalidDate)
	}
	if from.After(to) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrRangeInverted, from, to)
	}
	limit := from.MonthOf().AddMonths(MaxRangeMonths)
	if to.After(Date{Year: limit.Year, Month: limit.Month, Day: clampDay(limit, from.Day)}) {
		return Range{}, fmt.Errorf("%w: %s .. %s", ErrRangeTooLong, from, to)
	}
	return Range{From: from, To: to}, nil
}

// ParseRange parses optional YYYY-MM-DD bounds, falling back to DefaultRange(today)
// for whichever bound is empty.
func ParseRange(from, to string, today Date) (Range, error) {
	def := DefaultRange(today)
	f, t := def.From, def.To
	var err error
	if from != "" {
		if f, err = Parse(from); err != nil {
			return Range{}, err
		}
	}
	if to != "" {
		if t, err = Parse(to); err != nil {
			return Range{}, err
		}
	}
	return NewRange(f, t)
}

// DefaultRange runs from the first day of today's month to today.
func DefaultRange(today Date) Range {
	return Range{From: today.MonthOf().Start(), To: today}
}

// MonthRange covers the whole of m.
func MonthRange(m Month) Range {
	return Range{From: m.Start(), To: m.End()}
}

// Contains reports whether d falls inside r.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Days returns the number of days in r, counting both ends.
func (r Range) Days() int {
	return r.To.DaysSince(r.From) + 1
}

// LookbackWindow returns the submission window needed to classify target as
// of today: the whole target month plus lookbackDays before today.
func LookbackWindow(target Month, today Date, lookbackDays int) Range {
	from := target.Start()
	if trailing := today.AddDays(-lookbackDays); trailing.Before(from) {
		from = trailing
	}
	to := target.End()
	if today.After(to) {
		to = today
	}
	return Range{From: from, To: to}
}

func clampDay(m Month, day int) int {
	if last := m.End().Day; day > last {
		return last
	}
	return day
}
