package store

import (
	"time"
)

// DateLayout is the on-disk date format. Clinic staff edit the CSV files by
// hand, so dates stay in the DD-MM-YYYY convention the front desk uses.
const DateLayout = "02-01-2006"

// Patient is one row of patients.csv. Records are created on first contact
// and updated on later visits; the system never deletes them, except for a
// draft staged during a conversation that the patient cancels before
// confirming.
type Patient struct {
	ID               string
	Name             string
	DOB              string // canonical DD-MM-YYYY
	Phone            string // canonical E.164, may be empty
	Email            string
	Location         string
	InsuranceCarrier string
	MemberID         string
	GroupNumber      string
	CreatedAt        time.Time
}

// Slot is one bookable unit of a doctor's schedule: a row of
// doctor_schedule.csv. A slot is held by at most one patient.
type Slot struct {
	ID       string
	Doctor   string
	Date     time.Time
	Start    string // HH:MM, 24h
	End      string // HH:MM, 24h
	BookedBy string // empty while available
}

// Available reports whether the slot can still be reserved.
func (s Slot) Available() bool {
	return s.BookedBy == ""
}

// TimeRange renders the slot's time window for messages and booking rows.
func (s Slot) TimeRange() string {
	return s.Start + "-" + s.End
}

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is one row of bookings.csv. Status transitions are the only
// mutation; cancelled rows stay in the file. RemindersSent maps a reminder
// offset in days to whether that reminder went out; flags are monotonic.
type Booking struct {
	ID            string
	PatientID     string
	PatientName   string
	Doctor        string
	Date          time.Time
	TimeSlot      string
	SlotIDs       []string
	Email         string
	Phone         string
	Status        BookingStatus
	CreatedAt     time.Time
	RemindersSent map[int]bool
}

// ReminderSent reports whether the reminder for the given day offset has
// already been delivered.
func (b Booking) ReminderSent(offsetDays int) bool {
	return b.RemindersSent[offsetDays]
}

// Criteria selects a patient for FindPatient. Fields are matched exactly
// against canonical values; normalization is the caller's job.
type Criteria struct {
	Name  string
	DOB   string
	Phone string
}
