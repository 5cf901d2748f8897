package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the workflow counters. A nil *Metrics records nothing.
type Metrics struct {
	Transitions      *prometheus.CounterVec
	CalendarFailures *prometheus.CounterVec
	RemindersSent    prometheus.Counter
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lms",
			Name:      "session_request_transitions_total",
			Help:      "Session request status transitions, by event and target status.",
		}, []string{"event", "to"}),
		CalendarFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lms",
			Name:      "calendar_sync_failures_total",
			Help:      "Calendar create/delete calls that failed, by participant side.",
		}, []string{"side", "operation"}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "lms",
			Name:      "session_reminders_sent_total",
			Help:      "Reminder e-mails queued for upcoming sessions.",
		}),
	}
}

func (m *Metrics) Transition(event, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(event, to).Inc()
}

func (m *Metrics) CalendarFailure(side, operation string) {
	if m == nil {
		return
	}
	m.CalendarFailures.WithLabelValues(side, operation).Inc()
}

func (m *Metrics) ReminderSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}
