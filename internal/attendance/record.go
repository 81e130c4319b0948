package attendance

import "time"

// Key identifies the single attendance record a student may have
// for one class on one day.
type Key struct {
	StudentID string
	ClassID   string
	Date      time.Time
}

// Record is the stored outcome for a key. At most one exists per key;
// later events mutate it in place under the precedence rules.
type Record struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	ClassID         string     `json:"class_id"`
	TeacherID       string     `json:"teacher_id"`
	Date            time.Time  `json:"date"`
	ScanTime        time.Time  `json:"scan_time"`
	ArrivalTime     *time.Time `json:"arrival_time,omitempty"`
	Status          Status     `json:"status"`
	LateArrival     bool       `json:"late_arrival"`
	LateMinutes     int        `json:"late_minutes"`
	Notes           string     `json:"notes,omitempty"`
	ExcuseRequestID *string    `json:"excuse_request_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToKey returns the record's reconciliation key.
func (r Record) ToKey() Key {
	return Key{StudentID: r.StudentID, ClassID: r.ClassID, Date: r.Date}
}
