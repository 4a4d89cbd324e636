package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulingMetrics exposes counters for the booking and reminder flows.
// All observe methods are nil-safe so wiring metrics stays optional.
type SchedulingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	notifyTotal    *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec
	reminderRuns   prometheus.Counter
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cura",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking outcomes by final status",
		}, []string{"status"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cura",
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Outbound notifications by channel and outcome",
		}, []string{"channel", "status"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cura",
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Reminders sent or failed by day offset",
		}, []string{"offset_days", "status"}),
		reminderRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cura",
			Subsystem: "reminders",
			Name:      "runs_total",
			Help:      "Completed reminder batch runs",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.notifyTotal, m.remindersTotal, m.reminderRuns)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *SchedulingMetrics) ObserveNotify(channel, status string) {
	if m == nil {
		return
	}
	m.notifyTotal.WithLabelValues(channel, status).Inc()
}

func (m *SchedulingMetrics) ObserveReminder(offsetDays int, status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(strconv.Itoa(offsetDays), status).Inc()
}

func (m *SchedulingMetrics) ObserveReminderRun() {
	if m == nil {
		return
	}
	m.reminderRuns.Inc()
}
