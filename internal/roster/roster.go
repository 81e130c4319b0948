package roster

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("owned by another teacher")
	ErrInvalid   = errors.New("invalid input")
)

// Class is a teacher's scheduled group of students.
type Class struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// Student is an enrolled student. ClassID is nil for students not yet
// assigned to a class.
type Student struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StudentNumber string    `json:"student_number"`
	ClassID       *string   `json:"class_id,omitempty"`
	QRCodePath    string    `json:"qr_code_path"`
	PhotoPath     *string   `json:"photo_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
