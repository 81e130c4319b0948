package excuse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/attendance"
	"classtrack/internal/metrics"
)

var (
	// ErrNotFound means the request id resolved to nothing.
	ErrNotFound = errors.New("excuse request not found")
	// ErrForbidden means the request is addressed to another teacher.
	ErrForbidden = errors.New("excuse request belongs to another teacher")
	// ErrReasonRequired means a submission arrived without a reason.
	ErrReasonRequired = errors.New("excuse reason is required")
)

const expiredTeacherNote = "Automatically disapproved - no response within 7 days"

// Store is the persistence surface the service uses.
type Store interface {
	Create(ctx context.Context, req Request, link attendance.Event) error
	Transition(ctx context.Context, id string, to Status, reviewedAt time.Time, notes string, link attendance.Event) (Request, error)
	Get(ctx context.Context, id string) (*Request, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]Request, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Request, error)
}

// Service runs the excuse lifecycle: submission, teacher review and
// expiry. Each transition drives exactly one attendance event through
// the shared reconciliation rules.
type Service struct {
	store   Store
	classes attendance.ClassSource
	expiry  time.Duration
	now     func() time.Time
}

func NewService(store Store, classes attendance.ClassSource, expiry time.Duration) *Service {
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &Service{store: store, classes: classes, expiry: expiry, now: time.Now}
}

// Submit files a pending request addressed to the class owner and
// marks the day Excused unless the student is already attending.
func (s *Service) Submit(ctx context.Context, studentID, classID string, day time.Time, reason string, letterPath *string) (Request, error) {
	if reason == "" {
		return Request{}, ErrReasonRequired
	}
	ci, err := s.classes.ClassInfo(ctx, classID)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		ClassID:     classID,
		TeacherID:   ci.TeacherID,
		AbsenceDate: day,
		Reason:      reason,
		LetterPath:  letterPath,
		Status:      StatusPending,
		SubmittedAt: s.now().UTC(),
	}
	link := attendance.Event{
		Kind:            attendance.EventExcuseSubmit,
		TeacherID:       ci.TeacherID,
		Status:          attendance.StatusExcused,
		ScanTime:        req.SubmittedAt,
		Notes:           "Excuse request submitted: " + reason,
		ExcuseRequestID: &req.ID,
	}
	if err := s.store.Create(ctx, req, link); err != nil {
		return Request{}, fmt.Errorf("submit excuse: %w", err)
	}
	metrics.ExcuseTransitions.WithLabelValues(string(StatusPending)).Inc()
	return req, nil
}

// Review settles a pending request. Approval marks the linked day
// Present, disapproval marks it Absent; either way the linkage is
// skipped if the student already attended.
func (s *Service) Review(ctx context.Context, teacherID, requestID string, approve bool, teacherNotes string) (Request, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req == nil {
		return Request{}, ErrNotFound
	}
	if req.TeacherID != teacherID {
		return Request{}, ErrForbidden
	}
	if req.Status != StatusPending {
		return Request{}, ErrAlreadyReviewed
	}

	to := StatusDisapproved
	link := attendance.Event{
		Kind:            attendance.EventExcuseReview,
		TeacherID:       req.TeacherID,
		Status:          attendance.StatusAbsent,
		ScanTime:        s.now().UTC(),
		Notes:           disapprovalNote(req.Reason, teacherNotes),
		ExcuseRequestID: &req.ID,
	}
	if approve {
		to = StatusApproved
		link.Status = attendance.StatusPresent
		link.Notes = "Present (Approved Excuse): " + req.Reason
	}

	out, err := s.store.Transition(ctx, req.ID, to, s.now().UTC(), teacherNotes, link)
	if err != nil {
		return Request{}, err
	}
	metrics.ExcuseTransitions.WithLabelValues(string(to)).Inc()
	return out, nil
}

// Get returns one request after an ownership check.
func (s *Service) Get(ctx context.Context, teacherID, requestID string) (Request, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req == nil {
		return Request{}, ErrNotFound
	}
	if req.TeacherID != teacherID {
		return Request{}, ErrForbidden
	}
	return *req, nil
}

// ListForTeacher returns a teacher's inbox, pending first.
func (s *Service) ListForTeacher(ctx context.Context, teacherID string) ([]Request, error) {
	return s.store.ListByTeacher(ctx, teacherID)
}

// ExpireStale auto-disapproves every request pending longer than the
// expiry window and marks the linked days Absent. Safe to run
// repeatedly; requests reviewed in the meantime are skipped.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.expiry)
	stale, err := s.store.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, req := range stale {
		link := attendance.Event{
			Kind:            attendance.EventExcuseReview,
			TeacherID:       req.TeacherID,
			Status:          attendance.StatusAbsent,
			ScanTime:        s.now().UTC(),
			Notes:           "Excuse expired after 7 days: " + req.Reason,
			ExcuseRequestID: &req.ID,
		}
		_, err := s.store.Transition(ctx, req.ID, StatusDisapproved, s.now().UTC(), expiredTeacherNote, link)
		if errors.Is(err, ErrAlreadyReviewed) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("expire excuse %s: %w", req.ID, err)
		}
		expired++
	}
	metrics.ExpiredExcuses.Add(float64(expired))
	return expired, nil
}

func disapprovalNote(reason, teacherNotes string) string {
	note := "Excuse disapproved: " + reason
	if teacherNotes != "" {
		note += " | Teacher notes: " + teacherNotes
	}
	return note
}
