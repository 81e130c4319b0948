//go:build testutil
// +build testutil

package attendance_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/attendance"
	"classtrack/internal/testutil/testdb"
)

func seed(t *testing.T, db *sql.DB) (teacherID, classID, studentID string) {
	t.Helper()
	teacherID = uuid.NewString()
	classID = uuid.NewString()
	studentID = uuid.NewString()

	if _, err := db.Exec(
		`INSERT INTO teachers (id, username, password_hash) VALUES ($1,$2,$3)`,
		teacherID, "teacher-"+teacherID[:8], "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(
		`INSERT INTO classes (id, teacher_id, name, start_time, end_time)
		 VALUES ($1,$2,$3,'08:00','09:00')`,
		classID, teacherID, "Math "+classID[:8]); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(
		`INSERT INTO students (id, name, student_number) VALUES ($1,$2,$3)`,
		studentID, "Student", studentID[:8]); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(
		`UPDATE students SET class_id = $1 WHERE id = $2`, classID, studentID); err != nil {
		t.Fatal(err)
	}
	return teacherID, classID, studentID
}

func TestApplyUpsertsOneRowPerKey(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID, classID, studentID := seed(t, h.DB)
	repo := attendance.NewRepository(h.DB)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	key := attendance.Key{StudentID: studentID, ClassID: classID, Date: day}

	scan := attendance.Event{
		Kind:      attendance.EventScan,
		TeacherID: teacherID,
		Status:    attendance.StatusPresent,
		ScanTime:  time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	rec, applied, err := repo.Apply(ctx, key, scan)
	if err != nil {
		t.Fatal(err)
	}
	if !applied || rec.Status != attendance.StatusPresent {
		t.Fatalf("first scan: applied=%v status=%s", applied, rec.Status)
	}

	// Second scan is a no-op against the attending record.
	_, applied, err = repo.Apply(ctx, key, scan)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Fatal("second scan should not apply")
	}

	// Manual overrides, still one row.
	manual := attendance.Event{
		Kind:      attendance.EventManual,
		TeacherID: teacherID,
		Status:    attendance.StatusAbsent,
		ScanTime:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Notes:     "left early",
	}
	rec, applied, err = repo.Apply(ctx, key, manual)
	if err != nil {
		t.Fatal(err)
	}
	if !applied || rec.Status != attendance.StatusAbsent {
		t.Fatalf("manual: applied=%v status=%s", applied, rec.Status)
	}

	var n int
	if err := h.DB.QueryRow(
		`SELECT COUNT(*) FROM attendance_records WHERE student_id=$1 AND class_id=$2 AND date=$3`,
		studentID, classID, day).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d rows for the key, want 1", n)
	}
}

func TestInsertMissingAbsences(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID, classID, marked := seed(t, h.DB)

	// A second student with no record for the day.
	unmarked := uuid.NewString()
	if _, err := h.DB.Exec(
		`INSERT INTO students (id, name, student_number, class_id) VALUES ($1,$2,$3,$4)`,
		unmarked, "Other Student", unmarked[:8], classID); err != nil {
		t.Fatal(err)
	}

	repo := attendance.NewRepository(h.DB)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, _, err = repo.Apply(ctx, attendance.Key{StudentID: marked, ClassID: classID, Date: day},
		attendance.Event{
			Kind: attendance.EventScan, TeacherID: teacherID,
			Status: attendance.StatusPresent, ScanTime: time.Now().UTC(),
		})
	if err != nil {
		t.Fatal(err)
	}

	end := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	created, err := repo.InsertMissingAbsences(ctx, classID, teacherID, day, end, "Auto-marked absent - did not attend class")
	if err != nil {
		t.Fatal(err)
	}
	if created != 1 {
		t.Fatalf("created %d absences, want 1", created)
	}

	// Running again creates nothing.
	created, err = repo.InsertMissingAbsences(ctx, classID, teacherID, day, end, "Auto-marked absent - did not attend class")
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 {
		t.Fatalf("second sweep created %d", created)
	}

	rec, err := repo.Get(ctx, attendance.Key{StudentID: unmarked, ClassID: classID, Date: day})
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.Status != attendance.StatusAbsent {
		t.Fatalf("unmarked student record: %+v", rec)
	}
	if rec2, _ := repo.Get(ctx, attendance.Key{StudentID: marked, ClassID: classID, Date: day}); rec2.Status != attendance.StatusPresent {
		t.Fatalf("marked student overwritten: %s", rec2.Status)
	}
}
