package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/store"
)

// Repository persists attendance records. All reconciling writes go
// through ApplyTx so the read-resolve-write cycle happens under a row
// lock in one transaction.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordCols = `id, student_id, class_id, teacher_id, date, scan_time,
	arrival_time, status, late_arrival, late_minutes, notes,
	excuse_request_id, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var r Record
	var arrival sql.NullTime
	var excuseID sql.NullString
	err := row.Scan(&r.ID, &r.StudentID, &r.ClassID, &r.TeacherID, &r.Date,
		&r.ScanTime, &arrival, &r.Status, &r.LateArrival, &r.LateMinutes,
		&r.Notes, &excuseID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	if arrival.Valid {
		t := arrival.Time
		r.ArrivalTime = &t
	}
	if excuseID.Valid {
		s := excuseID.String
		r.ExcuseRequestID = &s
	}
	return r, nil
}

// Get returns the record for a key, or nil when none exists.
func (r *Repository) Get(ctx context.Context, key Key) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM attendance_records
		 WHERE student_id = $1 AND class_id = $2 AND date = $3`,
		key.StudentID, key.ClassID, key.Date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return &rec, nil
}

// GetByID returns one record by primary key, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM attendance_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record by id: %w", err)
	}
	return &rec, nil
}

// Apply runs one event against a key in its own transaction.
func (r *Repository) Apply(ctx context.Context, key Key, ev Event) (Record, bool, error) {
	var rec Record
	var applied bool
	err := store.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		rec, applied, err = r.ApplyTx(ctx, tx, key, ev)
		return err
	})
	return rec, applied, err
}

// ApplyTx reconciles one event inside the caller's transaction. The
// existing row, if any, is locked FOR UPDATE before the merge so two
// concurrent events for the same key serialize.
func (r *Repository) ApplyTx(ctx context.Context, tx *sql.Tx, key Key, ev Event) (Record, bool, error) {
	existing, err := lockRecord(ctx, tx, key)
	if err != nil {
		return Record{}, false, err
	}

	if existing == nil {
		rec, _ := Resolve(key, nil, ev)
		rec.ID = uuid.NewString()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO attendance_records
			 (id, student_id, class_id, teacher_id, date, scan_time, arrival_time,
			  status, late_arrival, late_minutes, notes, excuse_request_id)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			 ON CONFLICT (student_id, class_id, date) DO NOTHING`,
			rec.ID, rec.StudentID, rec.ClassID, rec.TeacherID, rec.Date,
			rec.ScanTime, rec.ArrivalTime, rec.Status, rec.LateArrival,
			rec.LateMinutes, rec.Notes, rec.ExcuseRequestID)
		if err != nil {
			return Record{}, false, fmt.Errorf("insert attendance record: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 1 {
			return rec, true, nil
		}
		// Lost the insert race; lock the winner and fall through to
		// the update path.
		existing, err = lockRecord(ctx, tx, key)
		if err != nil {
			return Record{}, false, err
		}
		if existing == nil {
			return Record{}, false, errors.New("attendance record vanished after conflict")
		}
	}

	rec, applied := Resolve(key, existing, ev)
	if !applied {
		return rec, false, nil
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE attendance_records SET
		   scan_time = $1, arrival_time = $2, status = $3, late_arrival = $4,
		   late_minutes = $5, notes = $6, excuse_request_id = $7, updated_at = NOW()
		 WHERE id = $8`,
		rec.ScanTime, rec.ArrivalTime, rec.Status, rec.LateArrival,
		rec.LateMinutes, rec.Notes, rec.ExcuseRequestID, rec.ID)
	if err != nil {
		return Record{}, false, fmt.Errorf("update attendance record: %w", err)
	}
	return rec, true, nil
}

func lockRecord(ctx context.Context, tx *sql.Tx, key Key) (*Record, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM attendance_records
		 WHERE student_id = $1 AND class_id = $2 AND date = $3
		 FOR UPDATE`,
		key.StudentID, key.ClassID, key.Date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock attendance record: %w", err)
	}
	return &rec, nil
}

// ListClassDate returns all records for one class on one day.
func (r *Repository) ListClassDate(ctx context.Context, classID string, day time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordCols+` FROM attendance_records
		 WHERE class_id = $1 AND date = $2
		 ORDER BY scan_time`,
		classID, day)
	if err != nil {
		return nil, fmt.Errorf("list class attendance: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListFilter narrows ListTeacher results. Zero values mean "no filter".
type ListFilter struct {
	ClassID string
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

// ListTeacher returns a teacher's records newest-first plus the total
// count for pagination.
func (r *Repository) ListTeacher(ctx context.Context, teacherID string, f ListFilter) ([]Record, int, error) {
	where := `teacher_id = $1`
	args := []any{teacherID}
	if f.ClassID != "" {
		args = append(args, f.ClassID)
		where += fmt.Sprintf(` AND class_id = $%d`, len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_records WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}

	q := `SELECT ` + recordCols + ` FROM attendance_records WHERE ` + where +
		` ORDER BY date DESC, scan_time DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
		args = append(args, f.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()
	recs, err := collectRecords(rows)
	return recs, total, err
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertMissingAbsences creates Absent records for every student of a
// class with no record for the day. Existing rows are left alone via
// the key's unique constraint; the whole sweep commits atomically.
func (r *Repository) InsertMissingAbsences(ctx context.Context, classID, teacherID string, day, scanTime time.Time, notes string) (int, error) {
	created := 0
	err := store.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT s.id FROM students s
			 WHERE s.class_id = $1
			   AND NOT EXISTS (
			     SELECT 1 FROM attendance_records a
			     WHERE a.student_id = s.id AND a.class_id = $1 AND a.date = $2)`,
			classID, day)
		if err != nil {
			return fmt.Errorf("find unmarked students: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, sid := range ids {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO attendance_records
				 (id, student_id, class_id, teacher_id, date, scan_time, status, notes)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
				 ON CONFLICT (student_id, class_id, date) DO NOTHING`,
				uuid.NewString(), sid, classID, teacherID, day, scanTime,
				StatusAbsent, notes)
			if err != nil {
				return fmt.Errorf("insert absence: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 1 {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
