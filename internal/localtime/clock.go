package localtime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Spoken clock fragments the voice intake hands us verbatim.
var spokenClocks = map[string]string{
	"noon":         "12:00",
	"midday":       "12:00",
	"around lunch": "12:00",
	"lunchtime":    "12:00",
	"midnight":     "00:00",
}

var clockPattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.|a|p)?$`)

// ParseClock turns a clock fragment into hour/minute. Accepts 24-hour
// ("15:04"), 12-hour ("3pm", "3:30 PM", "9 a.m."), and a handful of spoken
// forms ("noon", "around lunch").
func ParseClock(raw string) (hour, min int, err error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, 0, fmt.Errorf("%w: empty", ErrInvalidClock)
	}
	if mapped, ok := spokenClocks[s]; ok {
		s = mapped
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}

	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		min, _ = strconv.Atoi(m[2])
	}

	switch strings.TrimRight(strings.ReplaceAll(m[3], ".", ""), " ") {
	case "pm", "p":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
		}
		if hour != 12 {
			hour += 12
		}
	case "am", "a":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
		}
		if hour == 12 {
			hour = 0
		}
	default:
		// 24-hour form; "24:00" means local midnight at the end of a day and
		// is normalized here, callers apply the end-of-day rule.
		if hour == 24 && min == 0 {
			hour = 0
		}
	}

	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return hour, min, nil
}
