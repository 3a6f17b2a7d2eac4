package window

import (
	"fmt"
	"time"
)

// MinDuration is the default shortest interval an event may occupy after
// snapping.
const MinDuration = time.Minute

// SnapMinute rounds an instant to the nearest minute boundary. Exact
// half-minute ties round up.
func SnapMinute(t time.Time) time.Time {
	return t.Add(30 * time.Second).Truncate(time.Minute)
}

// Normalize runs a candidate (start, end) pair through the three fixed
// steps: minute snapping, minimum-duration enforcement (end pushed
// forward, start never moved back), then clamping to the window. A
// non-positive min falls back to MinDuration. An interval that collapses
// under clamping, e.g. an event entirely outside the window, is reported
// as an error, never silently dropped.
func Normalize(w Window, start, end time.Time, min time.Duration) (time.Time, time.Time, error) {
	if min <= 0 {
		min = MinDuration
	}
	start = SnapMinute(start)
	end = SnapMinute(end)
	if end.Sub(start) < min {
		end = start.Add(min)
	}
	if start.Before(w.Start) {
		start = w.Start
	}
	if end.After(w.End) {
		end = w.End
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("interval [%s, %s] collapses outside window [%s, %s]",
			start.Format(time.RFC3339), end.Format(time.RFC3339),
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return start, end, nil
}
