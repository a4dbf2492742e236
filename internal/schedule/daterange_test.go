package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock pins "now" to Tuesday, September 1, 2026 10:30 UTC for every
// resolver test.
func fixedClock() time.Time {
	return time.Date(2026, time.September, 1, 10, 30, 0, 0, time.UTC)
}

func resolveUTC(t *testing.T, req RangeRequest) DateRange {
	t.Helper()
	return NewResolver(fixedClock).Resolve(req, time.UTC)
}

func localDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve_Default_NextWeek(t *testing.T) {
	got := resolveUTC(t, RangeRequest{})

	assert.Equal(t, localDay(2026, time.September, 2), got.Start)
	assert.Equal(t, localDay(2026, time.September, 8), got.End)
	assert.Equal(t, "next week", got.Description)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Wednesday}, got.PreferredDays)
	assert.Len(t, got.Days(), 7)
}

func TestResolve_WeeksFromNow(t *testing.T) {
	got := resolveUTC(t, RangeRequest{WeeksFromNow: 3})

	assert.Equal(t, localDay(2026, time.September, 22), got.Start)
	assert.Equal(t, localDay(2026, time.September, 28), got.End)
	assert.Equal(t, "in 3 weeks", got.Description)

	one := resolveUTC(t, RangeRequest{WeeksFromNow: 1})
	assert.Equal(t, "in 1 week", one.Description)
	assert.Equal(t, localDay(2026, time.September, 8), one.Start)
}

func TestResolve_WeekOfMonth(t *testing.T) {
	// First Monday of October 2026 is the 5th; week 2 starts the 12th.
	got := resolveUTC(t, RangeRequest{WeekOfMonth: 2, MonthOffset: 1, MonthGiven: true})

	assert.Equal(t, localDay(2026, time.October, 12), got.Start)
	assert.Equal(t, localDay(2026, time.October, 18), got.End)
	assert.Equal(t, "week 2 of October", got.Description)
}

func TestResolve_WeekOfCurrentMonth(t *testing.T) {
	// First Monday of September 2026 is the 7th.
	got := resolveUTC(t, RangeRequest{WeekOfMonth: 1})

	assert.Equal(t, localDay(2026, time.September, 7), got.Start)
	assert.Equal(t, localDay(2026, time.September, 13), got.End)
}

func TestResolve_WholeMonth(t *testing.T) {
	got := resolveUTC(t, RangeRequest{MonthGiven: true, MonthOffset: 1})

	assert.Equal(t, localDay(2026, time.October, 1), got.Start)
	assert.Equal(t, localDay(2026, time.October, 31), got.End)
	assert.Equal(t, "October", got.Description)
}

func TestResolve_ExplicitDates(t *testing.T) {
	got := resolveUTC(t, RangeRequest{StartDate: "2026-09-10", EndDate: "2026-09-12"})

	assert.Equal(t, localDay(2026, time.September, 10), got.Start)
	assert.Equal(t, localDay(2026, time.September, 12), got.End)
	assert.Equal(t, "September 10 through September 12", got.Description)
}

func TestResolve_ExplicitSingleDay(t *testing.T) {
	got := resolveUTC(t, RangeRequest{StartDate: "2026-09-10"})

	assert.Equal(t, localDay(2026, time.September, 10), got.Start)
	assert.Equal(t, got.Start, got.End)
	assert.Equal(t, "Thursday, September 10", got.Description)
}

func TestResolve_EndBeforeStartIgnored(t *testing.T) {
	got := resolveUTC(t, RangeRequest{StartDate: "2026-09-10", EndDate: "2026-09-05"})

	assert.Equal(t, localDay(2026, time.September, 10), got.Start)
	assert.Equal(t, localDay(2026, time.September, 10), got.End)
}

func TestResolve_UnparseableFallsBackToTomorrow(t *testing.T) {
	got := resolveUTC(t, RangeRequest{StartDate: "whenever works"})

	assert.Equal(t, localDay(2026, time.September, 2), got.Start)
	assert.Equal(t, got.Start, got.End)
	assert.Equal(t, "tomorrow", got.Description)
}

func TestResolve_SpokenPreferredDays(t *testing.T) {
	got := resolveUTC(t, RangeRequest{PreferredDays: []string{"thu or fri"}})
	assert.Equal(t, []time.Weekday{time.Thursday, time.Friday}, got.PreferredDays)
}

func TestResolve_TakesPrecedenceInOrder(t *testing.T) {
	// Explicit date wins over everything else given at once.
	got := resolveUTC(t, RangeRequest{
		StartDate:    "2026-09-10",
		WeeksFromNow: 2,
		WeekOfMonth:  1,
		MonthGiven:   true,
	})
	assert.Equal(t, localDay(2026, time.September, 10), got.Start)
}

func TestParseNaturalDate(t *testing.T) {
	today := localDay(2026, time.September, 1) // a Tuesday

	cases := []struct {
		in   string
		want time.Time
	}{
		{"today", today},
		{"tomorrow", localDay(2026, time.September, 2)},
		{"Tomorrow ", localDay(2026, time.September, 2)},
		{"next monday", localDay(2026, time.September, 7)},
		{"next tuesday", localDay(2026, time.September, 8)}, // never today itself
		{"friday", localDay(2026, time.September, 4)},
		{"the 14th", localDay(2026, time.September, 14)},
		{"14", localDay(2026, time.September, 14)},
		// Ordinal already past this month rolls to next month.
		{"the 1st", localDay(2026, time.September, 1)},
		{"September 10", localDay(2026, time.September, 10)},
		{"Sep 10, 2026", localDay(2026, time.September, 10)},
		{"10/15/2026", localDay(2026, time.October, 15)},
		// Month-day before today pins to next year.
		{"March 5", localDay(2027, time.March, 5)},
	}
	for _, tc := range cases {
		got, ok := parseNaturalDate(tc.in, today, time.UTC)
		require.True(t, ok, "parseNaturalDate(%q)", tc.in)
		assert.Equal(t, tc.want, got, "parseNaturalDate(%q)", tc.in)
	}

	for _, bad := range []string{"", "soonish", "the 32nd", "13/45/2026"} {
		_, ok := parseNaturalDate(bad, today, time.UTC)
		assert.False(t, ok, "parseNaturalDate(%q) should fail", bad)
	}
}

func TestParseWeekdays(t *testing.T) {
	cases := []struct {
		in   []string
		want []time.Weekday
	}{
		{[]string{"tuesday"}, []time.Weekday{time.Tuesday}},
		{[]string{"tue or wed"}, []time.Weekday{time.Tuesday, time.Wednesday}},
		{[]string{"mon, tues, and thurs"}, []time.Weekday{time.Monday, time.Tuesday, time.Thursday}},
		{[]string{"mon/fri"}, []time.Weekday{time.Monday, time.Friday}},
		{[]string{"tue", "tue", "wed"}, []time.Weekday{time.Tuesday, time.Wednesday}},
		{[]string{"someday"}, nil},
		{nil, nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseWeekdays(tc.in), "parseWeekdays(%v)", tc.in)
	}
}
