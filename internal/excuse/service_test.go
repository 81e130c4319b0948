package excuse

import (
	"context"
	"errors"
	"testing"
	"time"

	"classtrack/internal/attendance"
)

type fakeStore struct {
	requests map[string]*Request
	linked   map[string]attendance.Event // request id -> last linked event
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: map[string]*Request{}, linked: map[string]attendance.Event{}}
}

func (f *fakeStore) Create(_ context.Context, req Request, link attendance.Event) error {
	cp := req
	f.requests[req.ID] = &cp
	f.linked[req.ID] = link
	return nil
}

func (f *fakeStore) Transition(_ context.Context, id string, to Status, reviewedAt time.Time, notes string, link attendance.Event) (Request, error) {
	req, ok := f.requests[id]
	if !ok || req.Status != StatusPending {
		return Request{}, ErrAlreadyReviewed
	}
	req.Status = to
	req.ReviewedAt = &reviewedAt
	req.TeacherNotes = notes
	f.linked[id] = link
	return *req, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*Request, error) {
	if r, ok := f.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) ListByTeacher(_ context.Context, teacherID string) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.TeacherID == teacherID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPendingBefore(_ context.Context, cutoff time.Time) ([]Request, error) {
	var out []Request
	for _, r := range f.requests {
		if r.Status == StatusPending && r.SubmittedAt.Before(cutoff) {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeClasses struct{}

func (fakeClasses) ClassInfo(_ context.Context, id string) (attendance.ClassInfo, error) {
	if id != "c1" {
		return attendance.ClassInfo{}, attendance.ErrClassNotFound
	}
	return attendance.ClassInfo{ID: "c1", TeacherID: "t1", Name: "Math 101"}, nil
}

var (
	testNow = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
)

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	svc := NewService(store, fakeClasses{}, 7*24*time.Hour)
	svc.now = func() time.Time { return testNow }
	return svc, store
}

func TestSubmit(t *testing.T) {
	svc, store := newTestService()

	req, err := svc.Submit(context.Background(), "s1", "c1", testDay, "doctor appointment", nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != StatusPending || req.TeacherID != "t1" {
		t.Fatalf("got %+v", req)
	}
	link := store.linked[req.ID]
	if link.Kind != attendance.EventExcuseSubmit || link.Status != attendance.StatusExcused {
		t.Fatalf("link = %+v", link)
	}
	if link.Notes != "Excuse request submitted: doctor appointment" {
		t.Fatalf("link notes = %q", link.Notes)
	}
}

func TestSubmitWithoutReason(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Submit(context.Background(), "s1", "c1", testDay, "", nil); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("want ErrReasonRequired, got %v", err)
	}
}

func TestReviewApprove(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, "s1", "c1", testDay, "family emergency", nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := svc.Review(ctx, "t1", req.ID, true, "verified with parent")
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusApproved || out.ReviewedAt == nil {
		t.Fatalf("got %+v", out)
	}
	link := store.linked[req.ID]
	if link.Status != attendance.StatusPresent {
		t.Fatalf("approval should mark Present, got %s", link.Status)
	}
	if link.Notes != "Present (Approved Excuse): family emergency" {
		t.Fatalf("link notes = %q", link.Notes)
	}
}

func TestReviewDisapprove(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	req, err := svc.Submit(ctx, "s1", "c1", testDay, "overslept", nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := svc.Review(ctx, "t1", req.ID, false, "not a valid reason")
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusDisapproved {
		t.Fatalf("got %s", out.Status)
	}
	link := store.linked[req.ID]
	if link.Status != attendance.StatusAbsent {
		t.Fatalf("disapproval should mark Absent, got %s", link.Status)
	}
	want := "Excuse disapproved: overslept | Teacher notes: not a valid reason"
	if link.Notes != want {
		t.Fatalf("link notes = %q, want %q", link.Notes, want)
	}
}

func TestReviewTwice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, _ := svc.Submit(ctx, "s1", "c1", testDay, "sick", nil)
	if _, err := svc.Review(ctx, "t1", req.ID, true, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Review(ctx, "t1", req.ID, false, ""); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("want ErrAlreadyReviewed, got %v", err)
	}
}

func TestReviewWrongTeacher(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req, _ := svc.Submit(ctx, "s1", "c1", testDay, "sick", nil)
	if _, err := svc.Review(ctx, "t2", req.ID, true, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestExpireStale(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	// Eight days old: should expire.
	old := Request{ID: "old", StudentID: "s1", ClassID: "c1", TeacherID: "t1",
		AbsenceDate: testDay, Reason: "sick", Status: StatusPending,
		SubmittedAt: testNow.Add(-8 * 24 * time.Hour)}
	store.requests["old"] = &old

	// Three days old: should stay pending.
	fresh := Request{ID: "fresh", StudentID: "s2", ClassID: "c1", TeacherID: "t1",
		AbsenceDate: testDay, Reason: "travel", Status: StatusPending,
		SubmittedAt: testNow.Add(-3 * 24 * time.Hour)}
	store.requests["fresh"] = &fresh

	n, err := svc.ExpireStale(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expired %d requests, want 1", n)
	}
	if store.requests["old"].Status != StatusDisapproved {
		t.Fatalf("old request is %s", store.requests["old"].Status)
	}
	if store.requests["old"].TeacherNotes != expiredTeacherNote {
		t.Fatalf("teacher notes = %q", store.requests["old"].TeacherNotes)
	}
	if store.requests["fresh"].Status != StatusPending {
		t.Fatalf("fresh request is %s", store.requests["fresh"].Status)
	}
	link := store.linked["old"]
	if link.Status != attendance.StatusAbsent || link.Notes != "Excuse expired after 7 days: sick" {
		t.Fatalf("link = %+v", link)
	}

	// Running again is a no-op.
	n, err = svc.ExpireStale(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second run expired %d", n)
	}
}
