package localtime

import (
	"errors"
	"fmt"
	"time"
)

// Wall-clock layouts used throughout the scheduling core. Dates and clocks
// travel as strings because the upstream voice intake hands us strings.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidTimezone  = errors.New("unrecognized timezone")
	ErrInvalidTimeRange = errors.New("local end time is not after start time")
	ErrInvalidDate      = errors.New("invalid local date")
	ErrInvalidClock     = errors.New("invalid local time")
)

// Location resolves an IANA timezone name. Unknown names are an input error,
// never silently defaulted.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// ToUTC localizes a wall-clock date/clock pair in the named zone and returns
// the UTC instant. The zone database resolves DST offsets.
func ToUTC(date, clock, zone string) (time.Time, error) {
	loc, err := Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	hour, min, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, loc)
	return local.UTC(), nil
}

// ToLocal converts a UTC instant back to the wall-clock date and clock in the
// named zone.
func ToLocal(utc time.Time, zone string) (date, clock string, err error) {
	loc, err := Location(zone)
	if err != nil {
		return "", "", err
	}
	local := utc.In(loc)
	return local.Format(DateLayout), local.Format(ClockLayout), nil
}

// Shift reports how the UTC projection of a local start/end pair relates to
// the local calendar date. Callers use it to decide whether a single local
// day must be checked across two UTC calendar dates.
type Shift struct {
	StartShifted bool
	EndShifted   bool
	UTCStart     time.Time
	UTCEnd       time.Time
	UTCStartDate string
	UTCEndDate   string
}

// Boundary converts a local date with start/end clocks to UTC instants and
// flags any calendar-date shift. An end clock of "00:00" (or "24:00") means
// end of the given local day, i.e. the start of the next one. Any other end
// at or before the start is an ErrInvalidTimeRange.
func Boundary(date, startClock, endClock, zone string) (Shift, error) {
	utcStart, err := ToUTC(date, startClock, zone)
	if err != nil {
		return Shift{}, err
	}

	var utcEnd time.Time
	endH, endM, err := ParseClock(endClock)
	if err != nil {
		return Shift{}, err
	}
	if endH == 0 && endM == 0 {
		next, err := NextDate(date)
		if err != nil {
			return Shift{}, err
		}
		utcEnd, err = ToUTC(next, "00:00", zone)
		if err != nil {
			return Shift{}, err
		}
	} else {
		utcEnd, err = ToUTC(date, endClock, zone)
		if err != nil {
			return Shift{}, err
		}
		if !utcEnd.After(utcStart) {
			return Shift{}, fmt.Errorf("%w: %s-%s on %s", ErrInvalidTimeRange, startClock, endClock, date)
		}
	}

	startDate := utcStart.UTC().Format(DateLayout)
	endDate := utcEnd.UTC().Format(DateLayout)
	return Shift{
		StartShifted: startDate != date,
		EndShifted:   endDate != date,
		UTCStart:     utcStart,
		UTCEnd:       utcEnd,
		UTCStartDate: startDate,
		UTCEndDate:   endDate,
	}, nil
}

// DayRange returns the UTC instants spanning one whole local day, local
// midnight through the next local midnight. The span routinely covers two
// adjacent UTC calendar dates.
func DayRange(date, zone string) (utcStart, utcEnd time.Time, err error) {
	utcStart, err = ToUTC(date, "00:00", zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	next, err := NextDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	utcEnd, err = ToUTC(next, "00:00", zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return utcStart, utcEnd, nil
}

// NextDate returns the calendar day after a DateLayout date string.
func NextDate(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return d.AddDate(0, 0, 1).Format(DateLayout), nil
}
