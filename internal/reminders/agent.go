package reminders

import (
	"context"
	"sort"
	"time"

	"github.com/cura-ai/scheduling-assistant/internal/observability/metrics"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// Sender delivers one staged reminder for a booking.
type Sender interface {
	SendReminder(ctx context.Context, b *store.Booking, offsetDays int) error
}

// Report summarizes a single reminder run.
type Report struct {
	Scanned    int // confirmed bookings examined
	Sent       int // reminders delivered and flagged
	Superseded int // stages flagged without delivery because a later stage was due
	Failed     int // delivery attempts that errored
}

// Agent scans confirmed bookings and sends whichever reminder stage is due.
// A stage with offset k is due when the appointment is between zero and k
// days away and its flag is not yet set. When several stages are due at once
// only the most urgent one is delivered; the earlier stages are flagged as
// superseded so they are not sent late.
type Agent struct {
	store   store.Store
	sender  Sender
	offsets []int
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
}

// NewAgent creates a reminder agent for the given offsets in days.
func NewAgent(st store.Store, sender Sender, offsets []int, m *metrics.SchedulingMetrics, logger *logging.Logger) *Agent {
	if logger == nil {
		logger = logging.Default()
	}
	sorted := make([]int, len(offsets))
	copy(sorted, offsets)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	return &Agent{
		store:   st,
		sender:  sender,
		offsets: sorted,
		metrics: m,
		logger:  logger,
	}
}

// Run performs one pass over all confirmed bookings. A failure on one
// booking is logged and counted but never stops the run; flags are only set
// after a successful delivery so a failed stage is retried on the next run.
func (a *Agent) Run(ctx context.Context, now time.Time) (Report, error) {
	var report Report

	bookings, err := a.store.ListConfirmedBookings()
	if err != nil {
		return report, err
	}
	a.metrics.ObserveReminderRun()

	today := truncateToDay(now)
	for i := range bookings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		b := &bookings[i]
		report.Scanned++

		daysUntil := int(truncateToDay(b.Date).Sub(today).Hours() / 24)
		if daysUntil < 0 {
			continue
		}

		a.processBooking(ctx, b, daysUntil, &report)
	}

	a.logger.Info("reminder run complete",
		"scanned", report.Scanned, "sent", report.Sent,
		"superseded", report.Superseded, "failed", report.Failed)
	return report, nil
}

func (a *Agent) processBooking(ctx context.Context, b *store.Booking, daysUntil int, report *Report) {
	due := make([]int, 0, len(a.offsets))
	for _, k := range a.offsets {
		if daysUntil <= k && !b.ReminderSent(k) {
			due = append(due, k)
		}
	}
	if len(due) == 0 {
		return
	}

	// Offsets are sorted descending, so the last due entry is the most
	// urgent stage. Everything before it is stale and is flagged silently.
	urgent := due[len(due)-1]
	for _, k := range due[:len(due)-1] {
		if err := a.store.MarkReminderSent(b.ID, k); err != nil {
			a.logger.Error("failed to flag superseded reminder", "booking_id", b.ID, "offset_days", k, "error", err)
			continue
		}
		a.metrics.ObserveReminder(k, "superseded")
		report.Superseded++
	}

	if err := a.sender.SendReminder(ctx, b, urgent); err != nil {
		a.logger.Error("reminder delivery failed", "booking_id", b.ID, "offset_days", urgent, "error", err)
		a.metrics.ObserveReminder(urgent, "failed")
		report.Failed++
		return
	}
	if err := a.store.MarkReminderSent(b.ID, urgent); err != nil {
		a.logger.Error("failed to flag sent reminder", "booking_id", b.ID, "offset_days", urgent, "error", err)
		report.Failed++
		return
	}
	a.metrics.ObserveReminder(urgent, "sent")
	report.Sent++
}

// truncateToDay maps a wall-clock instant to its calendar date at UTC
// midnight. Booking dates are stored as UTC midnights, so comparing two
// truncated values counts whole calendar days regardless of the zone the
// agent runs in.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
