package window

import (
	"testing"
	"time"
)

func mustCompute(t *testing.T, date, tz string) Window {
	t.Helper()
	w, err := Compute(date, tz, DefaultStartHour)
	if err != nil {
		t.Fatalf("compute window: %v", err)
	}
	return w
}

func TestComputeRegularDay(t *testing.T) {
	w := mustCompute(t, "2026-10-17", "America/New_York")
	wantStart := time.Date(2026, 10, 17, 7, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Fatalf("start = %s, want %s", w.Start, wantStart)
	}
	if !w.End.Equal(wantEnd) {
		t.Fatalf("end = %s, want %s", w.End, wantEnd)
	}
	if w.Duration() != 24*time.Hour {
		t.Fatalf("duration = %s, want 24h", w.Duration())
	}
}

func TestComputeFallBack(t *testing.T) {
	// US DST ends 2026-11-01; the local 03:00→03:00 span covers 25h.
	w := mustCompute(t, "2026-10-31", "America/New_York")
	if w.Duration() != 25*time.Hour {
		t.Fatalf("fall-back duration = %s, want 25h", w.Duration())
	}
}

func TestComputeSpringForward(t *testing.T) {
	// US DST starts 2026-03-08; the local 03:00→03:00 span covers 23h.
	w := mustCompute(t, "2026-03-07", "America/New_York")
	if w.Duration() != 23*time.Hour {
		t.Fatalf("spring-forward duration = %s, want 23h", w.Duration())
	}
}

func TestComputeUTC(t *testing.T) {
	w := mustCompute(t, "2026-06-20", "UTC")
	if got := w.Start.Hour(); got != 3 {
		t.Fatalf("start hour = %d, want 3", got)
	}
	if w.Duration() != 24*time.Hour {
		t.Fatalf("duration = %s, want 24h", w.Duration())
	}
}

func TestComputeErrors(t *testing.T) {
	if _, err := Compute("2026-10-17", "Mars/Olympus_Mons", DefaultStartHour); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
	if _, err := Compute("not-a-date", "UTC", DefaultStartHour); err == nil {
		t.Fatal("expected error for bad date")
	}
	if _, err := Compute("2026-10-17", "UTC", 24); err == nil {
		t.Fatal("expected error for out-of-range hour")
	}
}

func TestSnapMinute(t *testing.T) {
	base := time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC)
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{base, base},
		{base.Add(29 * time.Second), base},
		{base.Add(30 * time.Second), base.Add(time.Minute)}, // tie rounds up
		{base.Add(31 * time.Second), base.Add(time.Minute)},
		{base.Add(59*time.Second + 999*time.Millisecond), base.Add(time.Minute)},
	}
	for _, tc := range cases {
		if got := SnapMinute(tc.in); !got.Equal(tc.want) {
			t.Errorf("SnapMinute(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeClampsIntoWindow(t *testing.T) {
	w := mustCompute(t, "2026-10-17", "America/New_York")
	// 02:45 local (06:45Z) start clamps to window start; end untouched.
	start := time.Date(2026, 10, 17, 6, 45, 0, 0, time.UTC)
	end := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	gotStart, gotEnd, err := Normalize(w, start, end, 0)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !gotStart.Equal(w.Start) {
		t.Fatalf("start = %s, want window start %s", gotStart, w.Start)
	}
	if !gotEnd.Equal(end) {
		t.Fatalf("end = %s, want %s", gotEnd, end)
	}
}

func TestNormalizeMinDuration(t *testing.T) {
	w := mustCompute(t, "2026-10-17", "UTC")
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	start, end, err := Normalize(w, at, at, 0)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if end.Sub(start) != time.Minute {
		t.Fatalf("duration = %s, want 1m", end.Sub(start))
	}
	if !start.Equal(at) {
		t.Fatalf("start moved to %s", start)
	}
}

func TestNormalizeCustomMinDuration(t *testing.T) {
	w := mustCompute(t, "2026-10-17", "UTC")
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	start, end, err := Normalize(w, at, at.Add(2*time.Minute), 5*time.Minute)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if end.Sub(start) != 5*time.Minute {
		t.Fatalf("duration = %s, want 5m", end.Sub(start))
	}
}

func TestNormalizeRejectsOutsideWindow(t *testing.T) {
	w := mustCompute(t, "2026-10-17", "UTC")
	// Entirely before the window: clamping collapses the interval.
	start := w.Start.Add(-2 * time.Hour)
	end := w.Start.Add(-1 * time.Hour)
	if _, _, err := Normalize(w, start, end, 0); err == nil {
		t.Fatal("expected collapse error for interval before window")
	}
	// Entirely after the window.
	start = w.End.Add(time.Hour)
	end = w.End.Add(2 * time.Hour)
	if _, _, err := Normalize(w, start, end, 0); err == nil {
		t.Fatal("expected collapse error for interval after window")
	}
}

func TestNormalizeAlwaysMinuteAligned(t *testing.T) {
	w := mustCompute(t, "2026-10-17", "UTC")
	start := w.Start.Add(90*time.Minute + 17*time.Second)
	end := start.Add(45*time.Minute + 44*time.Second)
	gotStart, gotEnd, err := Normalize(w, start, end, 0)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if gotStart.Second() != 0 || gotStart.Nanosecond() != 0 {
		t.Fatalf("start not minute aligned: %s", gotStart)
	}
	if gotEnd.Second() != 0 || gotEnd.Nanosecond() != 0 {
		t.Fatalf("end not minute aligned: %s", gotEnd)
	}
	if gotEnd.Sub(gotStart) < time.Minute {
		t.Fatalf("duration below minimum: %s", gotEnd.Sub(gotStart))
	}
}
