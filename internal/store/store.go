package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a patient, slot, or booking does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrSlotConflict is returned when a reservation races another booking for
// the same slot. The caller is expected to re-propose.
var ErrSlotConflict = errors.New("store: slot already booked")

// Store is the record store contract. The CSV implementation is the only one
// in this repo; the interface exists so a transactional backend can replace
// it without touching callers.
type Store interface {
	// Patients
	FindPatient(c Criteria) (*Patient, error)
	ListPatients() ([]Patient, error)
	UpsertPatient(p Patient) (*Patient, error)
	RemovePatient(id string) error

	// Doctor schedule
	ListSlots(doctor string, day time.Time) ([]Slot, error)
	ReserveSlot(slotID, patientName string) error
	ReleaseSlot(slotID string) error

	// Bookings
	CreateBooking(b Booking) (*Booking, error)
	GetBooking(id string) (*Booking, error)
	UpdateBookingStatus(id string, status BookingStatus) error
	UpdateBookingContact(id, email, phone string) error
	ListConfirmedBookings() ([]Booking, error)
	MarkReminderSent(bookingID string, offsetDays int) error
}
