package attendance

import (
	"testing"
	"time"
)

var testKey = Key{
	StudentID: "s1",
	ClassID:   "c1",
	Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
}

func existingWith(status Status) *Record {
	return &Record{
		ID:        "rec1",
		StudentID: testKey.StudentID,
		ClassID:   testKey.ClassID,
		TeacherID: "t1",
		Date:      testKey.Date,
		Status:    status,
		Notes:     "original",
	}
}

func TestResolveCreatesWhenMissing(t *testing.T) {
	for _, kind := range []EventKind{EventSweep, EventScan, EventExcuseSubmit, EventExcuseReview, EventManual} {
		ev := Event{Kind: kind, TeacherID: "t1", Status: StatusAbsent}
		rec, applied := Resolve(testKey, nil, ev)
		if !applied {
			t.Fatalf("%v: creation should always apply", kind)
		}
		if rec.StudentID != "s1" || rec.ClassID != "c1" || rec.Status != StatusAbsent {
			t.Fatalf("%v: bad record %+v", kind, rec)
		}
	}
}

func TestResolveSweepNeverOverwrites(t *testing.T) {
	for _, status := range []Status{StatusPresent, StatusLate, StatusAbsent, StatusExcused} {
		ev := Event{Kind: EventSweep, Status: StatusAbsent}
		if _, applied := Resolve(testKey, existingWith(status), ev); applied {
			t.Fatalf("sweep overwrote %s record", status)
		}
	}
}

func TestResolveScan(t *testing.T) {
	arrival := time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC)
	ev := Event{
		Kind: EventScan, Status: StatusLate,
		ArrivalTime: &arrival, LateArrival: true, LateMinutes: 15,
	}

	// Scanning over Present or Late is a no-op.
	for _, status := range []Status{StatusPresent, StatusLate} {
		if _, applied := Resolve(testKey, existingWith(status), ev); applied {
			t.Fatalf("scan overwrote attending record %s", status)
		}
	}

	// Scanning over Absent or Excused upgrades the record but keeps
	// its notes and excuse linkage.
	for _, status := range []Status{StatusAbsent, StatusExcused} {
		rec, applied := Resolve(testKey, existingWith(status), ev)
		if !applied {
			t.Fatalf("scan should overwrite %s", status)
		}
		if rec.Status != StatusLate || rec.LateMinutes != 15 {
			t.Fatalf("scan result: %+v", rec)
		}
		if rec.Notes != "original" {
			t.Fatalf("scan clobbered notes: %q", rec.Notes)
		}
	}
}

func TestResolveExcuseEventsSkipAttending(t *testing.T) {
	id := "ex1"
	for _, kind := range []EventKind{EventExcuseSubmit, EventExcuseReview} {
		ev := Event{Kind: kind, Status: StatusExcused, Notes: "Excuse request submitted: sick", ExcuseRequestID: &id}
		for _, status := range []Status{StatusPresent, StatusLate} {
			if _, applied := Resolve(testKey, existingWith(status), ev); applied {
				t.Fatalf("%v overwrote attending record %s", kind, status)
			}
		}
		rec, applied := Resolve(testKey, existingWith(StatusAbsent), ev)
		if !applied || rec.Status != StatusExcused || rec.ExcuseRequestID == nil {
			t.Fatalf("%v over Absent: applied=%v rec=%+v", kind, applied, rec)
		}
	}
}

func TestResolveManualAlwaysWins(t *testing.T) {
	ev := Event{Kind: EventManual, Status: StatusAbsent, Notes: "marked by teacher"}
	for _, status := range []Status{StatusPresent, StatusLate, StatusAbsent, StatusExcused} {
		rec, applied := Resolve(testKey, existingWith(status), ev)
		if !applied {
			t.Fatalf("manual event skipped over %s", status)
		}
		if rec.Status != StatusAbsent || rec.Notes != "marked by teacher" {
			t.Fatalf("manual result over %s: %+v", status, rec)
		}
	}
}
