package attendance

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	records map[Key]*Record
	swept   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[Key]*Record{}}
}

func (f *fakeStore) Get(_ context.Context, key Key) (*Record, error) {
	if r, ok := f.records[key]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) Apply(_ context.Context, key Key, ev Event) (Record, bool, error) {
	rec, applied := Resolve(key, f.records[key], ev)
	if applied {
		if rec.ID == "" {
			rec.ID = "rec-" + key.StudentID
		}
		cp := rec
		f.records[key] = &cp
	}
	return rec, applied, nil
}

func (f *fakeStore) InsertMissingAbsences(_ context.Context, classID, teacherID string, day, scanTime time.Time, notes string) (int, error) {
	f.swept++
	return 3, nil
}

type fakeClasses struct {
	classes map[string]ClassInfo
}

func (f *fakeClasses) ClassInfo(_ context.Context, id string) (ClassInfo, error) {
	ci, ok := f.classes[id]
	if !ok {
		return ClassInfo{}, ErrClassNotFound
	}
	return ci, nil
}

func newTestService(now time.Time) (*Service, *fakeStore) {
	store := newFakeStore()
	classes := &fakeClasses{classes: map[string]ClassInfo{
		"c1": {
			ID:        "c1",
			TeacherID: "t1",
			Name:      "Math 101",
			StartTime: time.Date(0, 1, 1, 8, 0, 0, 0, time.UTC),
			EndTime:   time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC),
		},
	}}
	svc := NewService(store, classes)
	svc.now = func() time.Time { return now }
	return svc, store
}

var (
	day     = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	morning = time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
)

func TestRecordScanLate(t *testing.T) {
	svc, _ := newTestService(morning)

	rec, applied, err := svc.RecordScan(context.Background(), "t1", "s1", "c1", day, clock(8, 15))
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("first scan should apply")
	}
	if rec.Status != StatusLate || !rec.LateArrival || rec.LateMinutes != 15 {
		t.Fatalf("got %s late=%v mins=%d", rec.Status, rec.LateArrival, rec.LateMinutes)
	}
}

func TestRecordScanEarlyIsPresent(t *testing.T) {
	svc, _ := newTestService(morning)

	rec, applied, err := svc.RecordScan(context.Background(), "t1", "s1", "c1", day, clock(7, 55))
	if err != nil {
		t.Fatal(err)
	}
	if !applied || rec.Status != StatusPresent || rec.LateArrival || rec.LateMinutes != 0 {
		t.Fatalf("got applied=%v %s late=%v mins=%d", applied, rec.Status, rec.LateArrival, rec.LateMinutes)
	}
}

func TestRecordScanAlreadyMarked(t *testing.T) {
	svc, _ := newTestService(morning)
	ctx := context.Background()

	if _, _, err := svc.RecordScan(ctx, "t1", "s1", "c1", day, clock(7, 55)); err != nil {
		t.Fatal(err)
	}
	rec, applied, err := svc.RecordScan(ctx, "t1", "s1", "c1", day, clock(8, 40))
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Fatal("second scan should be a no-op")
	}
	if rec.Status != StatusPresent {
		t.Fatalf("record changed to %s", rec.Status)
	}
}

func TestRecordScanUpgradesSweptAbsence(t *testing.T) {
	svc, store := newTestService(morning)
	ctx := context.Background()

	key := Key{StudentID: "s1", ClassID: "c1", Date: day}
	store.records[key] = &Record{ID: "r1", StudentID: "s1", ClassID: "c1",
		TeacherID: "t1", Date: day, Status: StatusAbsent, Notes: sweepNote}

	rec, applied, err := svc.RecordScan(ctx, "t1", "s1", "c1", day, clock(8, 20))
	if err != nil {
		t.Fatal(err)
	}
	if !applied || rec.Status != StatusLate || rec.LateMinutes != 20 {
		t.Fatalf("got applied=%v %s mins=%d", applied, rec.Status, rec.LateMinutes)
	}
}

func TestRecordScanWrongTeacher(t *testing.T) {
	svc, _ := newTestService(morning)
	_, _, err := svc.RecordScan(context.Background(), "t2", "s1", "c1", day, clock(8, 0))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestRecordManualOverridesEverything(t *testing.T) {
	svc, _ := newTestService(morning)
	ctx := context.Background()

	if _, _, err := svc.RecordScan(ctx, "t1", "s1", "c1", day, clock(7, 55)); err != nil {
		t.Fatal(err)
	}
	rec, err := svc.RecordManual(ctx, "t1", "s1", "c1", day, StatusAbsent, nil, "left after roll call")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusAbsent || rec.Notes != "left after roll call" {
		t.Fatalf("got %s notes=%q", rec.Status, rec.Notes)
	}
}

func TestRecordManualLateComputesMinutes(t *testing.T) {
	svc, _ := newTestService(morning)

	arrival := clock(8, 25)
	rec, err := svc.RecordManual(context.Background(), "t1", "s1", "c1", day, StatusLate, &arrival, "")
	if err != nil {
		t.Fatal(err)
	}
	if !rec.LateArrival || rec.LateMinutes != 25 {
		t.Fatalf("got late=%v mins=%d", rec.LateArrival, rec.LateMinutes)
	}
}

func TestRecordManualRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(morning)
	if _, err := svc.RecordManual(context.Background(), "t1", "s1", "c1", day, Status("Tardy"), nil, ""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestSweepBeforeClassEnd(t *testing.T) {
	svc, store := newTestService(morning) // class runs 08:00-09:00

	n, err := svc.Sweep(context.Background(), "t1", "c1", day)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || store.swept != 0 {
		t.Fatalf("sweep ran before class end: n=%d calls=%d", n, store.swept)
	}
}

func TestSweepAfterClassEnd(t *testing.T) {
	svc, store := newTestService(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))

	n, err := svc.Sweep(context.Background(), "t1", "c1", day)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || store.swept != 1 {
		t.Fatalf("n=%d calls=%d", n, store.swept)
	}
}

func TestSweepPastDayAllowed(t *testing.T) {
	svc, store := newTestService(morning)
	yesterday := day.AddDate(0, 0, -1)

	n, err := svc.Sweep(context.Background(), "t1", "c1", yesterday)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || store.swept != 1 {
		t.Fatalf("n=%d calls=%d", n, store.swept)
	}
}
