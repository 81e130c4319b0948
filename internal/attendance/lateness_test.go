package attendance

import (
	"testing"
	"time"
)

func clock(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func TestLateness(t *testing.T) {
	start := clock(8, 0)
	cases := []struct {
		name    string
		arrival time.Time
		late    bool
		mins    int
	}{
		{"fifteen minutes late", clock(8, 15), true, 15},
		{"five minutes early", clock(7, 55), false, 0},
		{"exactly on time", clock(8, 0), false, 0},
		{"under a minute late", start.Add(30 * time.Second), false, 0},
		{"over an hour late", clock(9, 5), true, 65},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			late, mins := Lateness(tc.arrival, start)
			if late != tc.late || mins != tc.mins {
				t.Fatalf("Lateness(%v) = (%v, %d), want (%v, %d)",
					tc.arrival, late, mins, tc.late, tc.mins)
			}
		})
	}
}

func TestClassifyArrival(t *testing.T) {
	start := clock(8, 0)
	if a := ClassifyArrival(clock(7, 50), start); a.Status != ArrivalEarly || a.Minutes != -10 {
		t.Fatalf("early arrival: got %+v", a)
	}
	if a := ClassifyArrival(clock(8, 0), start); a.Status != ArrivalOnTime || a.Minutes != 0 {
		t.Fatalf("on-time arrival: got %+v", a)
	}
	if a := ClassifyArrival(clock(8, 1), start); a.Status != ArrivalLate || a.Minutes != 1 {
		t.Fatalf("late arrival: got %+v", a)
	}
}

func TestFormatDelta(t *testing.T) {
	cases := []struct {
		mins int
		want string
	}{
		{0, "On time"},
		{15, "15 min late"},
		{-10, "10 min early"},
		{65, "1h 5m late"},
		{120, "2h late"},
	}
	for _, tc := range cases {
		if got := FormatDelta(tc.mins); got != tc.want {
			t.Errorf("FormatDelta(%d) = %q, want %q", tc.mins, got, tc.want)
		}
	}
}
