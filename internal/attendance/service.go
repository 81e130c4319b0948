package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classtrack/internal/metrics"
)

var (
	// ErrForbidden means the class is owned by a different teacher.
	ErrForbidden = errors.New("class belongs to another teacher")
	// ErrClassNotFound means the class id resolved to nothing.
	ErrClassNotFound = errors.New("class not found")
)

const sweepNote = "Auto-marked absent - did not attend class"

// ClassInfo is the slice of class state the reconciler needs.
type ClassInfo struct {
	ID        string
	TeacherID string
	Name      string
	StartTime time.Time
	EndTime   time.Time
}

// ClassSource resolves class ids; the roster repository implements it.
type ClassSource interface {
	ClassInfo(ctx context.Context, id string) (ClassInfo, error)
}

// Store is the persistence surface the service writes through.
type Store interface {
	Get(ctx context.Context, key Key) (*Record, error)
	Apply(ctx context.Context, key Key, ev Event) (Record, bool, error)
	InsertMissingAbsences(ctx context.Context, classID, teacherID string, day, scanTime time.Time, notes string) (int, error)
}

// Service applies scan, manual and sweep events under the precedence
// rules. Excuse-driven events enter through the excuse package, which
// shares the same store.
type Service struct {
	store   Store
	classes ClassSource
	now     func() time.Time
}

func NewService(store Store, classes ClassSource) *Service {
	return &Service{store: store, classes: classes, now: time.Now}
}

func (s *Service) class(ctx context.Context, teacherID, classID string) (ClassInfo, error) {
	ci, err := s.classes.ClassInfo(ctx, classID)
	if err != nil {
		return ClassInfo{}, err
	}
	if teacherID != "" && ci.TeacherID != teacherID {
		return ClassInfo{}, ErrForbidden
	}
	return ci, nil
}

// RecordScan marks a scanned arrival. Arrival after the class start
// yields Late with the whole-minute delta, otherwise Present. A second
// scan against an attending record is reported as not applied.
func (s *Service) RecordScan(ctx context.Context, teacherID, studentID, classID string, day, arrival time.Time) (Record, bool, error) {
	ci, err := s.class(ctx, teacherID, classID)
	if err != nil {
		return Record{}, false, err
	}

	arrivalAt := at(day, arrival)
	late, mins := Lateness(arrivalAt, at(day, ci.StartTime))
	status := StatusPresent
	if late {
		status = StatusLate
	}

	ev := Event{
		Kind:        EventScan,
		TeacherID:   ci.TeacherID,
		Status:      status,
		ScanTime:    s.now().UTC(),
		ArrivalTime: &arrivalAt,
		LateArrival: late,
		LateMinutes: mins,
	}
	rec, applied, err := s.store.Apply(ctx, Key{StudentID: studentID, ClassID: classID, Date: day}, ev)
	if err != nil {
		return Record{}, false, fmt.Errorf("apply scan: %w", err)
	}
	observe(ev, applied)
	return rec, applied, nil
}

// RecordManual sets a status by teacher decision. Manual events always
// win over whatever is already recorded. For Late the arrival time
// (defaulting to now) drives the minute computation; other statuses
// clear the lateness fields.
func (s *Service) RecordManual(ctx context.Context, teacherID, studentID, classID string, day time.Time, status Status, arrival *time.Time, notes string) (Record, error) {
	if !status.Valid() {
		return Record{}, fmt.Errorf("unknown attendance status %q", status)
	}
	ci, err := s.class(ctx, teacherID, classID)
	if err != nil {
		return Record{}, err
	}

	ev := Event{
		Kind:      EventManual,
		TeacherID: ci.TeacherID,
		Status:    status,
		ScanTime:  s.now().UTC(),
		Notes:     notes,
	}
	if status == StatusLate {
		when := s.now().UTC()
		if arrival != nil {
			when = *arrival
		}
		arrivalAt := at(day, when)
		_, mins := Lateness(arrivalAt, at(day, ci.StartTime))
		ev.ArrivalTime = &arrivalAt
		ev.LateArrival = true
		ev.LateMinutes = mins
	}

	rec, applied, err := s.store.Apply(ctx, Key{StudentID: studentID, ClassID: classID, Date: day}, ev)
	if err != nil {
		return Record{}, fmt.Errorf("apply manual mark: %w", err)
	}
	observe(ev, applied)
	return rec, nil
}

// Sweep marks every unrecorded student of a class Absent for the day.
// It refuses to run before the class end time on that day and never
// touches existing records.
func (s *Service) Sweep(ctx context.Context, teacherID, classID string, day time.Time) (int, error) {
	ci, err := s.class(ctx, teacherID, classID)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	if now.Before(at(day, ci.EndTime)) {
		return 0, nil
	}

	created, err := s.store.InsertMissingAbsences(ctx, classID, ci.TeacherID, day, at(day, ci.EndTime), sweepNote)
	if err != nil {
		return 0, fmt.Errorf("sweep absences: %w", err)
	}
	metrics.SweepCreated.Add(float64(created))
	return created, nil
}

func observe(ev Event, applied bool) {
	if applied {
		metrics.EventsApplied.WithLabelValues(string(ev.Status)).Inc()
	} else {
		metrics.EventsSkipped.Inc()
	}
}
