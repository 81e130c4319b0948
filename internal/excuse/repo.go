package excuse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classtrack/internal/attendance"
	"classtrack/internal/store"
)

// ErrAlreadyReviewed means the request left Pending before this
// transition could claim it.
var ErrAlreadyReviewed = errors.New("excuse request already reviewed")

// Repository stores excuse requests. Every state change also applies
// its linked attendance event inside the same transaction, so the
// request and the record can never disagree.
type Repository struct {
	db      *sql.DB
	records *attendance.Repository
}

func NewRepository(db *sql.DB, records *attendance.Repository) *Repository {
	return &Repository{db: db, records: records}
}

const requestCols = `id, student_id, class_id, teacher_id, absence_date, reason,
	letter_path, status, submitted_at, reviewed_at, teacher_notes`

func scanRequest(row interface{ Scan(...any) error }) (Request, error) {
	var req Request
	var letter sql.NullString
	var reviewed sql.NullTime
	err := row.Scan(&req.ID, &req.StudentID, &req.ClassID, &req.TeacherID,
		&req.AbsenceDate, &req.Reason, &letter, &req.Status,
		&req.SubmittedAt, &reviewed, &req.TeacherNotes)
	if err != nil {
		return Request{}, err
	}
	if letter.Valid {
		s := letter.String
		req.LetterPath = &s
	}
	if reviewed.Valid {
		t := reviewed.Time
		req.ReviewedAt = &t
	}
	return req, nil
}

// Create inserts a pending request and applies the linked Excused
// attendance event in one transaction.
func (r *Repository) Create(ctx context.Context, req Request, link attendance.Event) error {
	return store.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO excuse_requests
			 (id, student_id, class_id, teacher_id, absence_date, reason,
			  letter_path, status, submitted_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			req.ID, req.StudentID, req.ClassID, req.TeacherID, req.AbsenceDate,
			req.Reason, req.LetterPath, req.Status, req.SubmittedAt)
		if err != nil {
			return fmt.Errorf("insert excuse request: %w", err)
		}
		key := attendance.Key{StudentID: req.StudentID, ClassID: req.ClassID, Date: req.AbsenceDate}
		_, _, err = r.records.ApplyTx(ctx, tx, key, link)
		return err
	})
}

// Transition moves a pending request to a terminal state and applies
// the linked attendance event atomically. A request that is no longer
// Pending returns ErrAlreadyReviewed.
func (r *Repository) Transition(ctx context.Context, id string, to Status, reviewedAt time.Time, notes string, link attendance.Event) (Request, error) {
	var out Request
	err := store.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`UPDATE excuse_requests
			 SET status = $1, reviewed_at = $2, teacher_notes = $3
			 WHERE id = $4 AND status = $5
			 RETURNING `+requestCols,
			to, reviewedAt, notes, id, StatusPending)
		req, err := scanRequest(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadyReviewed
		}
		if err != nil {
			return fmt.Errorf("transition excuse request: %w", err)
		}
		out = req

		key := attendance.Key{StudentID: req.StudentID, ClassID: req.ClassID, Date: req.AbsenceDate}
		_, _, err = r.records.ApplyTx(ctx, tx, key, link)
		return err
	})
	return out, err
}

// Get returns one request, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Request, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestCols+` FROM excuse_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get excuse request: %w", err)
	}
	return &req, nil
}

// ListByTeacher returns a teacher's requests, pending first then
// newest-first within each state.
func (r *Repository) ListByTeacher(ctx context.Context, teacherID string) ([]Request, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestCols+` FROM excuse_requests
		 WHERE teacher_id = $1
		 ORDER BY (status = 'Pending') DESC, submitted_at DESC`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("list excuse requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListPendingBefore returns pending requests submitted before the
// cutoff, oldest first.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Request, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestCols+` FROM excuse_requests
		 WHERE status = $1 AND submitted_at < $2
		 ORDER BY submitted_at`,
		StatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale excuse requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
