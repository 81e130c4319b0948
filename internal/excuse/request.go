package excuse

import "time"

// Status is the review state of an excuse request. Pending is the only
// non-terminal state; Approved and Disapproved never change again.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusApproved    Status = "Approved"
	StatusDisapproved Status = "Disapproved"
)

// Request is an excuse submitted for one student absence.
type Request struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"student_id"`
	ClassID      string     `json:"class_id"`
	TeacherID    string     `json:"teacher_id"`
	AbsenceDate  time.Time  `json:"absence_date"`
	Reason       string     `json:"reason"`
	LetterPath   *string    `json:"letter_path,omitempty"`
	Status       Status     `json:"status"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	TeacherNotes string     `json:"teacher_notes,omitempty"`
}
