package analytics

import (
	"context"
	"testing"
	"time"

	"classtrack/internal/attendance"
)

// fakeSource records the class filter each query was made with.
type fakeSource struct {
	rows     []Row
	students []StudentMeta
	classes  []ClassMeta

	recordsClassID  string
	studentsClassID string
}

func (f *fakeSource) Records(_ context.Context, _ string, _, _ time.Time, classID string) ([]Row, error) {
	f.recordsClassID = classID
	return f.rows, nil
}

func (f *fakeSource) Students(_ context.Context, _, classID string) ([]StudentMeta, error) {
	f.studentsClassID = classID
	return f.students, nil
}

func (f *fakeSource) Classes(context.Context, string) ([]ClassMeta, error) {
	return f.classes, nil
}

func (f *fakeSource) RecentActivity(context.Context, string, int) ([]Activity, error) {
	return nil, nil
}

func TestTimeAnalysisForwardsClassFilter(t *testing.T) {
	src := &fakeSource{}
	e := NewEngine(src, nil)

	_, err := e.TimeAnalysis(context.Background(), "t1", day(1), day(31), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if src.recordsClassID != "c1" {
		t.Fatalf("records queried with class %q, want c1", src.recordsClassID)
	}
}

func TestInsightsForwardsClassFilter(t *testing.T) {
	src := &fakeSource{students: []StudentMeta{meta("s1")}}
	e := NewEngine(src, nil)

	_, err := e.Insights(context.Background(), "t1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if src.recordsClassID != "c1" || src.studentsClassID != "c1" {
		t.Fatalf("queried with records=%q students=%q, want c1 for both",
			src.recordsClassID, src.studentsClassID)
	}
}

func TestReportForwardsClassFilterAndZeroFillsStudents(t *testing.T) {
	src := &fakeSource{
		rows: []Row{
			row("s1", day(2), attendance.StatusPresent, 0),
		},
		students: []StudentMeta{meta("s1"), meta("s2")},
	}
	e := NewEngine(src, nil)

	rep, err := e.Report(context.Background(), "t1", day(1), day(5), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if src.recordsClassID != "c1" || src.studentsClassID != "c1" {
		t.Fatalf("queried with records=%q students=%q, want c1 for both",
			src.recordsClassID, src.studentsClassID)
	}
	if len(rep.Students) != 2 {
		t.Fatalf("got %d student summaries, want 2", len(rep.Students))
	}
	if rep.Students[0].StudentID != "s2" || rep.Students[0].AttendanceRate != 0 {
		t.Fatalf("zero-record student: %+v", rep.Students[0])
	}
}
