package attendance

import "fmt"

// Status is the canonical outcome for one student/class/day.
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
	StatusAbsent  Status = "Absent"
	StatusExcused Status = "Excused"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusExcused:
		return true
	}
	return false
}

// Attending reports whether s counts toward the attendance rate.
func (s Status) Attending() bool {
	return s == StatusPresent || s == StatusLate
}

// ParseStatus validates an inbound status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown attendance status %q", s)
	}
	return st, nil
}
