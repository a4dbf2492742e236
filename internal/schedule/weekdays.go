package schedule

import (
	"strings"
	"time"
)

// weekdayNames maps full names and the abbreviations callers actually say.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tues":      time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"weds":      time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thurs":     time.Thursday,
	"thur":      time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// parseWeekdays extracts an ordered, deduplicated weekday list from spoken
// fragments like "tue or wed" or "Mon tues Wednesday". Unrecognized tokens
// are skipped.
func parseWeekdays(fragments []string) []time.Weekday {
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, frag := range fragments {
		for _, token := range strings.FieldsFunc(strings.ToLower(frag), func(r rune) bool {
			return r == ' ' || r == ',' || r == '/'
		}) {
			if token == "or" || token == "and" {
				continue
			}
			wd, ok := weekdayNames[strings.Trim(token, ".")]
			if !ok {
				continue
			}
			if seen[wd] {
				continue
			}
			seen[wd] = true
			days = append(days, wd)
		}
	}
	return days
}
