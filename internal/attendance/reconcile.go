package attendance

import "time"

// EventKind names the source of an attendance event. Kinds carry
// precedence: manual edits outrank excuse reviews, which outrank scans
// and excuse submissions, which outrank the absence sweep.
type EventKind int

const (
	EventSweep EventKind = iota
	EventScan
	EventExcuseSubmit
	EventExcuseReview
	EventManual
)

func (k EventKind) String() string {
	switch k {
	case EventSweep:
		return "sweep"
	case EventScan:
		return "scan"
	case EventExcuseSubmit:
		return "excuse_submit"
	case EventExcuseReview:
		return "excuse_review"
	case EventManual:
		return "manual"
	}
	return "unknown"
}

// Event is a proposed change to the record for one key.
type Event struct {
	Kind            EventKind
	TeacherID       string
	Status          Status
	ScanTime        time.Time
	ArrivalTime     *time.Time
	LateArrival     bool
	LateMinutes     int
	Notes           string
	ExcuseRequestID *string
}

// Resolve merges an event into the existing record for a key, or builds
// a fresh one when existing is nil. It returns the record to persist and
// whether the event took effect at all.
//
// Rules, in order:
//   - no existing record: every kind creates one.
//   - sweep never touches an existing record.
//   - scans and excuse-driven events never overwrite Present or Late.
//   - manual edits always win.
func Resolve(key Key, existing *Record, ev Event) (Record, bool) {
	if existing == nil {
		rec := Record{
			StudentID:       key.StudentID,
			ClassID:         key.ClassID,
			TeacherID:       ev.TeacherID,
			Date:            key.Date,
			ScanTime:        ev.ScanTime,
			ArrivalTime:     ev.ArrivalTime,
			Status:          ev.Status,
			LateArrival:     ev.LateArrival,
			LateMinutes:     ev.LateMinutes,
			Notes:           ev.Notes,
			ExcuseRequestID: ev.ExcuseRequestID,
		}
		return rec, true
	}

	rec := *existing
	switch ev.Kind {
	case EventSweep:
		return rec, false

	case EventScan:
		if rec.Status.Attending() {
			return rec, false
		}
		rec.Status = ev.Status
		rec.ScanTime = ev.ScanTime
		rec.ArrivalTime = ev.ArrivalTime
		rec.LateArrival = ev.LateArrival
		rec.LateMinutes = ev.LateMinutes
		return rec, true

	case EventExcuseSubmit, EventExcuseReview:
		if rec.Status.Attending() {
			return rec, false
		}
		rec.Status = ev.Status
		rec.Notes = ev.Notes
		rec.ExcuseRequestID = ev.ExcuseRequestID
		return rec, true

	case EventManual:
		rec.Status = ev.Status
		rec.ScanTime = ev.ScanTime
		rec.ArrivalTime = ev.ArrivalTime
		rec.LateArrival = ev.LateArrival
		rec.LateMinutes = ev.LateMinutes
		rec.Notes = ev.Notes
		return rec, true
	}
	return rec, false
}
