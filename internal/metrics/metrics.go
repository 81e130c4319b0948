package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "attendance_events_total",
		Help: "Attendance events applied to the record set, by resulting status",
	}, []string{"status"})
	EventsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "attendance_events_skipped_total",
		Help: "Events resolved as no-ops by the precedence rules",
	})
	ExcuseTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "excuse_transitions_total",
		Help: "Excuse request state transitions",
	}, []string{"to"})
	SweepCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "sweep_absences_created_total",
		Help: "Absence records created by the end-of-class sweep",
	})
	ExpiredExcuses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "excuses_expired_total",
		Help: "Pending excuse requests auto-disapproved after the expiry window",
	})
	QueuePublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classtrack", Name: "queue_publish_errors_total",
		Help: "Failed attendance event publishes",
	})
)

func init() {
	prometheus.MustRegister(EventsApplied, EventsSkipped, ExcuseTransitions,
		SweepCreated, ExpiredExcuses, QueuePublishErrors)
}

func Handler() http.Handler { return promhttp.Handler() }
