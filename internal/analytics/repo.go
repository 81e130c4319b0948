package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ClassMeta is the class metadata aggregates are keyed on.
type ClassMeta struct {
	ID        string
	Name      string
	StartTime time.Time
	EndTime   time.Time
}

// StudentMeta identifies a roster student for per-student aggregates.
type StudentMeta struct {
	ID            string
	Name          string
	StudentNumber string
	ClassName     string
}

// Repository reads the joined record set aggregates are computed from.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Records returns a teacher's records in [from, to], joined with
// student and class names. classID narrows to one class when set.
func (r *Repository) Records(ctx context.Context, teacherID string, from, to time.Time, classID string) ([]Row, error) {
	q := `SELECT a.student_id, s.name, s.student_number, a.class_id, c.name,
	             a.date, a.status, a.scan_time, a.arrival_time, a.late_minutes, a.notes
	      FROM attendance_records a
	      JOIN students s ON s.id = a.student_id
	      JOIN classes c ON c.id = a.class_id
	      WHERE a.teacher_id = $1 AND a.date >= $2 AND a.date <= $3`
	args := []any{teacherID, from, to}
	if classID != "" {
		args = append(args, classID)
		q += fmt.Sprintf(` AND a.class_id = $%d`, len(args))
	}
	q += ` ORDER BY a.date, a.scan_time`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query analytics records: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		var arrival sql.NullTime
		err := rows.Scan(&row.StudentID, &row.StudentName, &row.StudentNumber,
			&row.ClassID, &row.ClassName, &row.Date, &row.Status,
			&row.ScanTime, &arrival, &row.LateMinutes, &row.Notes)
		if err != nil {
			return nil, err
		}
		if arrival.Valid {
			t := arrival.Time
			row.ArrivalTime = &t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Students returns the roster of a teacher's classes, so summaries can
// include students with no records in the window. classID narrows to
// one class when set.
func (r *Repository) Students(ctx context.Context, teacherID, classID string) ([]StudentMeta, error) {
	q := `SELECT s.id, s.name, s.student_number, c.name
	      FROM students s
	      JOIN classes c ON c.id = s.class_id
	      WHERE c.teacher_id = $1`
	args := []any{teacherID}
	if classID != "" {
		args = append(args, classID)
		q += fmt.Sprintf(` AND s.class_id = $%d`, len(args))
	}
	q += ` ORDER BY s.name, s.student_number`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query roster students: %w", err)
	}
	defer rows.Close()

	var out []StudentMeta
	for rows.Next() {
		var st StudentMeta
		if err := rows.Scan(&st.ID, &st.Name, &st.StudentNumber, &st.ClassName); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Classes returns a teacher's classes as aggregate keys.
func (r *Repository) Classes(ctx context.Context, teacherID string) ([]ClassMeta, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, start_time, end_time FROM classes
		 WHERE teacher_id = $1 ORDER BY start_time, name`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	var out []ClassMeta
	for rows.Next() {
		var c ClassMeta
		if err := rows.Scan(&c.ID, &c.Name, &c.StartTime, &c.EndTime); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentActivity returns a teacher's newest records for the dashboard.
func (r *Repository) RecentActivity(ctx context.Context, teacherID string, limit int) ([]Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.name, c.name, a.status, a.date, a.scan_time
		 FROM attendance_records a
		 JOIN students s ON s.id = a.student_id
		 JOIN classes c ON c.id = a.class_id
		 WHERE a.teacher_id = $1
		 ORDER BY a.date DESC, a.scan_time DESC
		 LIMIT $2`,
		teacherID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var day, scan time.Time
		if err := rows.Scan(&a.StudentName, &a.ClassName, &a.Status, &day, &scan); err != nil {
			return nil, err
		}
		a.Date = day.Format(dateLayout)
		a.ScanTime = scan.Format("15:04")
		out = append(out, a)
	}
	return out, rows.Err()
}
