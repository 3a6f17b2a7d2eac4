// Package window computes the valid editing window for a wedding day and
// enforces the snapping/clamping rules that keep event times inside it.
package window

import (
	"fmt"
	"time"
)

// DefaultStartHour is the venue-local hour at which the editing window
// opens on the wedding date and closes on the following date.
const DefaultStartHour = 3

// Window is the half-open-ish span [Start, End] in UTC within which all
// timeline events must fall.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Compute derives the editing window from a wedding date (YYYY-MM-DD) and
// an IANA timezone: startHour local time on the date through startHour
// local time on the following date. The local span is always calendar-day
// plus next calendar-day, so a DST transition inside it yields a real
// duration of 23, 24 or 25 hours.
func Compute(weddingDate, tzName string, startHour int) (Window, error) {
	if startHour < 0 || startHour > 23 {
		return Window{}, fmt.Errorf("window start hour %d out of range", startHour)
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Window{}, fmt.Errorf("invalid venue timezone %q: %w", tzName, err)
	}
	day, err := time.ParseInLocation("2006-01-02", weddingDate, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid wedding date %q: %w", weddingDate, err)
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, startHour, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, startHour, 0, 0, 0, loc)
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}
