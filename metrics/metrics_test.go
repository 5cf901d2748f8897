package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transition("assign", "ASSIGNED")
	m.Transition("assign", "ASSIGNED")
	m.CalendarFailure("tutor", "create")
	m.ReminderSent()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("assign", "ASSIGNED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalendarFailures.WithLabelValues("tutor", "create")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CalendarFailures.WithLabelValues("student", "delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersSent))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("reject", "REJECTED")
		m.CalendarFailure("student", "delete")
		m.ReminderSent()
	})
}
