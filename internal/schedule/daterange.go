package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vetcal/scheduling-service/internal/localtime"
)

// Clock supplies the current instant. Injected so range resolution is
// deterministic under test.
type Clock func() time.Time

// RangeRequest is one fuzzy scheduling ask, already split into fields by the
// voice/API intake. Zero values mean "not given".
type RangeRequest struct {
	WeeksFromNow  int      // "in 3 weeks"
	WeekOfMonth   int      // 1-based, combined with MonthOffset: "week 2 of next month"
	MonthOffset   int      // 1 = next month; meaningful alone ("next month") or with WeekOfMonth
	MonthGiven    bool     // distinguishes MonthOffset 0 ("this month") from absent
	StartDate     string   // explicit start, ISO or natural ("June 5", "tomorrow")
	EndDate       string   // explicit end; defaults to StartDate when empty
	PreferredDays []string // spoken weekday list, e.g. "tue or wed"
}

// DateRange is the resolved, concrete scan range. Start/End are local
// calendar days (midnight in loc), inclusive.
type DateRange struct {
	Start         time.Time
	End           time.Time
	Description   string
	PreferredDays []time.Weekday
}

// Days enumerates the local calendar days of the range in order.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// defaultPreferredDays reflects the practices' stated scheduling preference:
// fill mid-week first.
var defaultPreferredDays = []time.Weekday{time.Tuesday, time.Wednesday}

// Resolver turns RangeRequests into concrete local date ranges.
type Resolver struct {
	clock Clock
}

func NewResolver(clock Clock) *Resolver {
	if clock == nil {
		clock = time.Now
	}
	return &Resolver{clock: clock}
}

// Resolve picks the first request shape that applies, in fixed precedence:
// explicit dates, weeks-from-now, week-of-month, whole month, then the
// default "next week". It never fails: unparseable explicit dates fall back
// to tomorrow as a single-day range, a deliberate conversational policy.
func (r *Resolver) Resolve(req RangeRequest, loc *time.Location) DateRange {
	today := midnight(r.clock().In(loc))

	out := DateRange{PreferredDays: parseWeekdays(req.PreferredDays)}
	if len(out.PreferredDays) == 0 {
		out.PreferredDays = defaultPreferredDays
	}

	switch {
	case req.StartDate != "":
		start, ok := parseNaturalDate(req.StartDate, today, loc)
		if !ok {
			out.Start = today.AddDate(0, 0, 1)
			out.End = out.Start
			out.Description = "tomorrow"
			return out
		}
		end := start
		if req.EndDate != "" {
			if e, ok := parseNaturalDate(req.EndDate, today, loc); ok && !e.Before(start) {
				end = e
			}
		}
		out.Start = start
		out.End = end
		if end.Equal(start) {
			out.Description = start.Format("Monday, January 2")
		} else {
			out.Description = fmt.Sprintf("%s through %s",
				start.Format("January 2"), end.Format("January 2"))
		}

	case req.WeeksFromNow > 0:
		out.Start = today.AddDate(0, 0, 7*req.WeeksFromNow)
		out.End = out.Start.AddDate(0, 0, 6)
		if req.WeeksFromNow == 1 {
			out.Description = "in 1 week"
		} else {
			out.Description = fmt.Sprintf("in %d weeks", req.WeeksFromNow)
		}

	case req.WeekOfMonth > 0:
		target := addMonths(today, req.MonthOffset)
		anchor := firstMonday(target.Year(), target.Month(), loc)
		out.Start = anchor.AddDate(0, 0, 7*(req.WeekOfMonth-1))
		out.End = out.Start.AddDate(0, 0, 6)
		out.Description = fmt.Sprintf("week %d of %s", req.WeekOfMonth, out.Start.Format("January"))

	case req.MonthGiven:
		target := addMonths(today, req.MonthOffset)
		out.Start = time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, loc)
		out.End = out.Start.AddDate(0, 1, -1)
		out.Description = out.Start.Format("January")

	default:
		out.Start = today.AddDate(0, 0, 1)
		out.End = today.AddDate(0, 0, 7)
		out.Description = "next week"
	}

	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func addMonths(t time.Time, n int) time.Time {
	// Anchor to the 1st so AddDate can't spill into the month after next.
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
}

func firstMonday(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

var ordinalDayPattern = regexp.MustCompile(`^(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?$`)

var naturalDateLayouts = []string{
	localtime.DateLayout,
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2",
	"Jan 2",
	"1/2/2006",
	"01/02/2006",
}

// parseNaturalDate resolves the date fragments the voice intake produces:
// ISO dates, month-name forms, "today"/"tomorrow", "next tuesday", and bare
// ordinals like "the 14th" (next occurrence of that day of month).
func parseNaturalDate(raw string, today time.Time, loc *time.Location) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}

	if wd, ok := weekdayNames[strings.TrimPrefix(s, "next ")]; ok {
		d := today.AddDate(0, 0, 1)
		for d.Weekday() != wd {
			d = d.AddDate(0, 0, 1)
		}
		return d, true
	}

	if m := ordinalDayPattern.FindStringSubmatch(s); m != nil {
		day := 0
		fmt.Sscanf(m[1], "%d", &day)
		if day >= 1 && day <= 31 {
			d := time.Date(today.Year(), today.Month(), day, 0, 0, 0, 0, loc)
			if d.Day() != day || d.Before(today) {
				d = time.Date(today.Year(), today.Month()+1, day, 0, 0, 0, 0, loc)
			}
			if d.Day() == day {
				return d, true
			}
		}
		return time.Time{}, false
	}

	for _, layout := range naturalDateLayouts {
		if d, err := time.ParseInLocation(layout, strings.TrimSpace(raw), loc); err == nil {
			// Layouts without a year parse as year 0; pin those to the next
			// occurrence from today.
			if d.Year() == 0 {
				d = time.Date(today.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
				if d.Before(today) {
					d = d.AddDate(1, 0, 0)
				}
			}
			return midnight(d), true
		}
	}

	return time.Time{}, false
}
