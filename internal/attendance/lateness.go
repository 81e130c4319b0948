package attendance

import (
	"fmt"
	"time"
)

// ArrivalStatus qualifies an arrival relative to the class start.
type ArrivalStatus string

const (
	ArrivalEarly  ArrivalStatus = "early"
	ArrivalOnTime ArrivalStatus = "on_time"
	ArrivalLate   ArrivalStatus = "late"
)

// Arrival is the result of classifying an arrival time against a class start.
// Minutes is signed: positive means late, negative early, zero on time.
type Arrival struct {
	Status  ArrivalStatus `json:"status"`
	Minutes int           `json:"minutes_difference"`
}

// ClassifyArrival compares an arrival time with the class start time.
// The difference is whole minutes truncated toward zero.
func ClassifyArrival(arrival, start time.Time) Arrival {
	mins := int(arrival.Sub(start) / time.Minute)
	switch {
	case mins > 0:
		return Arrival{Status: ArrivalLate, Minutes: mins}
	case mins < 0:
		return Arrival{Status: ArrivalEarly, Minutes: mins}
	default:
		return Arrival{Status: ArrivalOnTime, Minutes: 0}
	}
}

// Lateness reports whether the arrival is late and by how many minutes.
// Early or on-time arrivals yield (false, 0).
func Lateness(arrival, start time.Time) (bool, int) {
	a := ClassifyArrival(arrival, start)
	if a.Status != ArrivalLate {
		return false, 0
	}
	return true, a.Minutes
}

// FormatDelta renders a signed minute difference for display,
// e.g. "1h 5m late", "10 min early", "On time".
func FormatDelta(minutes int) string {
	if minutes == 0 {
		return "On time"
	}
	suffix := "late"
	if minutes < 0 {
		suffix = "early"
		minutes = -minutes
	}
	hours := minutes / 60
	mins := minutes % 60
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%dh %dm %s", hours, mins, suffix)
	case hours > 0:
		return fmt.Sprintf("%dh %s", hours, suffix)
	default:
		return fmt.Sprintf("%d min %s", mins, suffix)
	}
}

// at pins a clock reading onto a calendar day so two time-of-day values
// can be compared on the same date.
func at(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}
