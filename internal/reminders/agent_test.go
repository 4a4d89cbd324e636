package reminders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cura-ai/scheduling-assistant/internal/notify"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

type recordingSender struct {
	sent    []string // "bookingID/offset"
	failFor map[string]bool
}

func (r *recordingSender) SendReminder(_ context.Context, b *store.Booking, offsetDays int) error {
	if r.failFor[b.ID] {
		return notify.ErrTransport
	}
	r.sent = append(r.sent, fmt.Sprintf("%s/%d", b.ID, offsetDays))
	return nil
}

var testNow = time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)

func newAgentFixture(t *testing.T, sender Sender) (*Agent, store.Store) {
	t.Helper()
	st, err := store.NewCSVStore(t.TempDir(), []int{3, 2, 1}, logging.New("error"))
	require.NoError(t, err)
	return NewAgent(st, sender, []int{3, 2, 1}, nil, logging.New("error")), st
}

func confirmedBooking(t *testing.T, st store.Store, id string, daysOut int) *store.Booking {
	t.Helper()
	b, err := st.CreateBooking(store.Booking{
		ID:          id,
		PatientID:   "p-" + id,
		PatientName: "Asha Verma",
		Doctor:      "Dr. Mehta",
		Date:        testNow.AddDate(0, 0, daysOut),
		TimeSlot:    "10:00-10:30",
		Phone:       "+919812345678",
		Status:      store.BookingPending,
	})
	require.NoError(t, err)
	require.NoError(t, st.UpdateBookingStatus(b.ID, store.BookingConfirmed))
	return b
}

func TestRunSendsDueStage(t *testing.T) {
	sender := &recordingSender{}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-1", 3)

	report, err := agent.Run(t.Context(), testNow)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"bk-1/3"}, sender.sent)

	got, err := st.GetBooking("bk-1")
	require.NoError(t, err)
	assert.True(t, got.ReminderSent(3))
	assert.False(t, got.ReminderSent(2))
}

func TestRunCountsCalendarDaysAcrossZones(t *testing.T) {
	sender := &recordingSender{}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-tz", 3)

	// Same calendar day as testNow, but observed from a zone five hours
	// behind UTC. The appointment is still three days out.
	localNow := testNow.In(time.FixedZone("UTC-5", -5*60*60))
	report, err := agent.Run(t.Context(), localNow)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 0, report.Superseded)
	assert.Equal(t, []string{"bk-tz/3"}, sender.sent)

	got, err := st.GetBooking("bk-tz")
	require.NoError(t, err)
	assert.True(t, got.ReminderSent(3))
	assert.False(t, got.ReminderSent(2))
}

func TestRunIsIdempotentWithinADay(t *testing.T) {
	sender := &recordingSender{}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-1", 3)

	_, err := agent.Run(t.Context(), testNow)
	require.NoError(t, err)
	report, err := agent.Run(t.Context(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Sent)
	assert.Len(t, sender.sent, 1)
}

func TestRunSupersedesStaleStages(t *testing.T) {
	sender := &recordingSender{}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-1", 1)

	report, err := agent.Run(t.Context(), testNow)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 2, report.Superseded)
	assert.Equal(t, []string{"bk-1/1"}, sender.sent)

	got, err := st.GetBooking("bk-1")
	require.NoError(t, err)
	for _, k := range []int{3, 2, 1} {
		assert.True(t, got.ReminderSent(k), "offset %d", k)
	}
}

func TestRunCatchesUpAcrossDays(t *testing.T) {
	sender := &recordingSender{}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-1", 3)

	_, err := agent.Run(t.Context(), testNow)
	require.NoError(t, err)
	report, err := agent.Run(t.Context(), testNow.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"bk-1/3", "bk-1/2"}, sender.sent)
}

func TestRunSkipsPastAppointments(t *testing.T) {
	sender := &recordingSender{}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-old", -1)

	report, err := agent.Run(t.Context(), testNow)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 0, report.Sent)
	assert.Empty(t, sender.sent)
}

func TestRunIgnoresPendingBookings(t *testing.T) {
	sender := &recordingSender{}
	agent, st := newAgentFixture(t, sender)
	_, err := st.CreateBooking(store.Booking{
		ID: "bk-pending", PatientName: "Asha Verma", Doctor: "Dr. Mehta",
		Date: testNow.AddDate(0, 0, 2), TimeSlot: "11:00-11:30",
		Status: store.BookingPending,
	})
	require.NoError(t, err)

	report, err := agent.Run(t.Context(), testNow)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Empty(t, sender.sent)
}

func TestRunRetriesFailedDeliveryNextRun(t *testing.T) {
	sender := &recordingSender{failFor: map[string]bool{"bk-1": true}}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-1", 3)

	report, err := agent.Run(t.Context(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	got, err := st.GetBooking("bk-1")
	require.NoError(t, err)
	assert.False(t, got.ReminderSent(3))

	delete(sender.failFor, "bk-1")
	report, err = agent.Run(t.Context(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"bk-1/3"}, sender.sent)
}

func TestRunFailureOnOneBookingDoesNotStopOthers(t *testing.T) {
	sender := &recordingSender{failFor: map[string]bool{"bk-bad": true}}
	agent, st := newAgentFixture(t, sender)
	confirmedBooking(t, st, "bk-bad", 3)
	confirmedBooking(t, st, "bk-good", 3)

	report, err := agent.Run(t.Context(), testNow)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"bk-good/3"}, sender.sent)
}
