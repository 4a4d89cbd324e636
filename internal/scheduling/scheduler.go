package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// ErrNoAvailability is returned when the requested window has no bookable
// slot (or slot pair, for new patients).
var ErrNoAvailability = errors.New("scheduling: no slots available in requested window")

// PatientKind decides how much schedule a visit needs. New patients get a
// double-length intake visit: two consecutive slots in the same session.
type PatientKind string

const (
	KindReturning PatientKind = "returning"
	KindNew       PatientKind = "new"
)

// Proposal is a tentative selection of schedule slots, not yet reserved.
type Proposal struct {
	Doctor string
	Date   time.Time
	Slots  []store.Slot
}

// TimeSlot renders the proposal's time window for messages and booking rows.
func (p Proposal) TimeSlot() string {
	parts := make([]string, 0, len(p.Slots))
	for _, s := range p.Slots {
		parts = append(parts, s.TimeRange())
	}
	return strings.Join(parts, " & ")
}

func (p Proposal) slotIDs() []string {
	ids := make([]string, 0, len(p.Slots))
	for _, s := range p.Slots {
		ids = append(ids, s.ID)
	}
	return ids
}

// Scheduler finds and reserves schedule slots. Reservation is a
// compare-and-set in the store; a lost race surfaces store.ErrSlotConflict
// and the caller re-proposes.
type Scheduler struct {
	store  store.Store
	logger *logging.Logger
}

// New creates a scheduler over the record store.
func New(s store.Store, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{store: s, logger: logger}
}

// Propose scans the doctor's slots for the day in chronological order and
// returns the first fit: one available slot for returning patients, the
// first pair of back-to-back available slots in the same session for new
// patients.
func (s *Scheduler) Propose(doctor string, day time.Time, kind PatientKind) (Proposal, error) {
	slots, err := s.store.ListSlots(doctor, day)
	if err != nil {
		return Proposal{}, fmt.Errorf("scheduling: propose: %w", err)
	}
	if len(slots) == 0 {
		return Proposal{}, ErrNoAvailability
	}

	if kind == KindNew {
		for i := 0; i+1 < len(slots); i++ {
			a, b := slots[i], slots[i+1]
			if a.Available() && b.Available() && consecutive(a, b) && sameSession(a, b) {
				return Proposal{Doctor: doctor, Date: day, Slots: []store.Slot{a, b}}, nil
			}
		}
		return Proposal{}, ErrNoAvailability
	}

	for _, slot := range slots {
		if slot.Available() {
			return Proposal{Doctor: doctor, Date: day, Slots: []store.Slot{slot}}, nil
		}
	}
	return Proposal{}, ErrNoAvailability
}

// Confirm reserves the proposal's slots and writes a pending booking row.
// If any slot was claimed in the meantime the partial reservation is rolled
// back and store.ErrSlotConflict is returned.
func (s *Scheduler) Confirm(p Proposal, patient store.Patient) (*store.Booking, error) {
	reserved := make([]string, 0, len(p.Slots))
	for _, slot := range p.Slots {
		if err := s.store.ReserveSlot(slot.ID, patient.Name); err != nil {
			for _, id := range reserved {
				if relErr := s.store.ReleaseSlot(id); relErr != nil {
					s.logger.Error("scheduling: rollback release failed", "slot_id", id, "error", relErr)
				}
			}
			return nil, fmt.Errorf("scheduling: confirm: %w", err)
		}
		reserved = append(reserved, slot.ID)
	}

	booking, err := s.store.CreateBooking(store.Booking{
		PatientID:   patient.ID,
		PatientName: patient.Name,
		Doctor:      p.Doctor,
		Date:        p.Date,
		TimeSlot:    p.TimeSlot(),
		SlotIDs:     p.slotIDs(),
		Email:       patient.Email,
		Phone:       patient.Phone,
		Status:      store.BookingPending,
	})
	if err != nil {
		for _, id := range reserved {
			if relErr := s.store.ReleaseSlot(id); relErr != nil {
				s.logger.Error("scheduling: rollback release failed", "slot_id", id, "error", relErr)
			}
		}
		return nil, fmt.Errorf("scheduling: confirm: %w", err)
	}

	s.logger.Info("scheduling: slot reserved",
		"booking_id", booking.ID,
		"doctor", p.Doctor,
		"date", p.Date.Format(store.DateLayout),
		"time_slot", booking.TimeSlot,
	)
	return booking, nil
}

// Cancel releases the booking's slots and marks it cancelled. The booking
// row stays in the file.
func (s *Scheduler) Cancel(b *store.Booking) error {
	for _, id := range b.SlotIDs {
		if err := s.store.ReleaseSlot(id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("scheduling: cancel: release slot %s: %w", id, err)
		}
	}
	if err := s.store.UpdateBookingStatus(b.ID, store.BookingCancelled); err != nil {
		return fmt.Errorf("scheduling: cancel: %w", err)
	}
	s.logger.Info("scheduling: booking cancelled", "booking_id", b.ID)
	return nil
}

// consecutive reports whether b starts exactly when a ends.
func consecutive(a, b store.Slot) bool {
	return a.End == b.Start
}

// sameSession keeps intake double-slots inside one session: morning slots
// start before noon, afternoon slots at or after it.
func sameSession(a, b store.Slot) bool {
	return morning(a.Start) == morning(b.Start)
}

func morning(start string) bool {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return false
	}
	return t.Hour() < 12
}
