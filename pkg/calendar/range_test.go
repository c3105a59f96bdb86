package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRange(t *testing.T) {
	r, err := NewRange(MustParse("2025-01-15"), MustParse("2026-01-15"))
	require.NoError(t, err)
	assert.True(t, r.Contains(MustParse("2025-07-01")))
	assert.False(t, r.Contains(MustParse("2026-01-16")))

	_, err = NewRange(MustParse("2025-01-15"), MustParse("2026-01-16"))
	assert.ErrorIs(t, err, ErrRangeTooLong)

	_, err = NewRange(MustParse("2025-02-01"), MustParse("2025-01-31"))
	assert.ErrorIs(t, err, ErrRangeInverted)

	_, err = NewRange(Date{}, MustParse("2025-01-31"))
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestNewRangeClampsShortMonths(t *testing.T) {
	_, err := NewRange(MustParse("2024-03-31"), MustParse("2025-03-31"))
	require.NoError(t, err)
	_, err = NewRange(MustParse("2024-02-29"), MustParse("2025-02-28"))
	require.NoError(t, err)
}

func TestParseRangeDefaults(t *testing.T) {
	today := MustParse("2025-03-10")
	r, err := ParseRange("", "", today)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", r.From.String())
	assert.Equal(t, "2025-03-10", r.To.String())
	assert.Equal(t, 10, r.Days())

	r, err = ParseRange("2025-02-01", "", today)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", r.From.String())

	_, err = ParseRange("2025-13-01", "", today)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestLookbackWindow(t *testing.T) {
	today := MustParse("2025-03-10")

	w := LookbackWindow(MustParse("2025-03-01").MonthOf(), today, 30)
	assert.Equal(t, "2025-02-08", w.From.String())
	assert.Equal(t, "2025-03-31", w.To.String())

	w = LookbackWindow(MustParse("2025-01-01").MonthOf(), today, 2)
	assert.Equal(t, "2025-01-01", w.From.String())
	assert.Equal(t, "2025-03-10", w.To.String())
}

func TestMonthRange(t *testing.T) {
	r := MonthRange(MustParse("2024-02-10").MonthOf())
	assert.Equal(t, 29, r.Days())
}
