package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classtrack/internal/attendance"
)

// Repository persists classes and students.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const classCols = `id, teacher_id, name, start_time, end_time, created_at`

func scanClass(row interface{ Scan(...any) error }) (Class, error) {
	var c Class
	err := row.Scan(&c.ID, &c.TeacherID, &c.Name, &c.StartTime, &c.EndTime, &c.CreatedAt)
	return c, err
}

func (r *Repository) CreateClass(ctx context.Context, c Class) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO classes (id, teacher_id, name, start_time, end_time)
		 VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.TeacherID, c.Name, c.StartTime, c.EndTime)
	if err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

func (r *Repository) UpdateClass(ctx context.Context, c Class) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE classes SET name = $1, start_time = $2, end_time = $3 WHERE id = $4`,
		c.Name, c.StartTime, c.EndTime, c.ID)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteClass(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ClassByID(ctx context.Context, id string) (*Class, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+classCols+` FROM classes WHERE id = $1`, id)
	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	return &c, nil
}

func (r *Repository) ClassByName(ctx context.Context, teacherID, name string) (*Class, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+classCols+` FROM classes WHERE teacher_id = $1 AND name = $2`,
		teacherID, name)
	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class by name: %w", err)
	}
	return &c, nil
}

func (r *Repository) ListClasses(ctx context.Context, teacherID string) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+classCols+` FROM classes WHERE teacher_id = $1 ORDER BY start_time, name`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()
	var out []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ClassInfo implements attendance.ClassSource.
func (r *Repository) ClassInfo(ctx context.Context, id string) (attendance.ClassInfo, error) {
	c, err := r.ClassByID(ctx, id)
	if err != nil {
		return attendance.ClassInfo{}, err
	}
	if c == nil {
		return attendance.ClassInfo{}, attendance.ErrClassNotFound
	}
	return attendance.ClassInfo{
		ID:        c.ID,
		TeacherID: c.TeacherID,
		Name:      c.Name,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
	}, nil
}

const studentCols = `id, name, student_number, class_id, qr_code_path, photo_path, created_at`

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var s Student
	var classID, photo sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.StudentNumber, &classID, &s.QRCodePath, &photo, &s.CreatedAt)
	if err != nil {
		return Student{}, err
	}
	if classID.Valid {
		v := classID.String
		s.ClassID = &v
	}
	if photo.Valid {
		v := photo.String
		s.PhotoPath = &v
	}
	return s, nil
}

func (r *Repository) CreateStudent(ctx context.Context, s Student) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO students (id, name, student_number, class_id, qr_code_path, photo_path)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.Name, s.StudentNumber, s.ClassID, s.QRCodePath, s.PhotoPath)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (r *Repository) UpdateStudent(ctx context.Context, s Student) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE students SET name = $1, student_number = $2, class_id = $3,
		   qr_code_path = $4, photo_path = $5
		 WHERE id = $6`,
		s.Name, s.StudentNumber, s.ClassID, s.QRCodePath, s.PhotoPath, s.ID)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) StudentByID(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+studentCols+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &s, nil
}

func (r *Repository) StudentByNumber(ctx context.Context, number string) (*Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+studentCols+` FROM students WHERE student_number = $1`, number)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student by number: %w", err)
	}
	return &s, nil
}

// ListStudents returns students, optionally restricted to one class,
// ordered by student number.
func (r *Repository) ListStudents(ctx context.Context, classID string) ([]Student, error) {
	q := `SELECT ` + studentCols + ` FROM students`
	var args []any
	if classID != "" {
		q += ` WHERE class_id = $1`
		args = append(args, classID)
	}
	q += ` ORDER BY student_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ClassesInSession reports which of a teacher's classes are in session
// at the given instant.
func (r *Repository) ClassesInSession(ctx context.Context, teacherID string, now time.Time) ([]Class, error) {
	classes, err := r.ListClasses(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	tod := time.Date(0, 1, 1, now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	var out []Class
	for _, c := range classes {
		start := time.Date(0, 1, 1, c.StartTime.Hour(), c.StartTime.Minute(), 0, 0, time.UTC)
		end := time.Date(0, 1, 1, c.EndTime.Hour(), c.EndTime.Minute(), 0, 0, time.UTC)
		if !tod.Before(start) && tod.Before(end) {
			out = append(out, c)
		}
	}
	return out, nil
}
