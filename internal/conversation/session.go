package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/cura-ai/scheduling-assistant/internal/scheduling"
	"github.com/cura-ai/scheduling-assistant/internal/store"
)

// Stage is the conversation step the assistant is waiting on. Each inbound
// message advances at most one stage.
type Stage string

const (
	StageGreeting         Stage = "greeting"
	StageCollectingInfo   Stage = "collecting_info"
	StageInsuranceCarrier Stage = "insurance_carrier"
	StageInsuranceMember  Stage = "insurance_member_id"
	StageInsuranceGroup   Stage = "insurance_group"
	StageCollectingDate   Stage = "collecting_date"
	StageCollectingEmail  Stage = "collecting_email"
	StageCollectingPhone  Stage = "collecting_phone"
	StageDecision         Stage = "decision"
	StageDone             Stage = "done"
)

// Session is the mutable state of one scheduling conversation. It is stored
// as JSON, so every field that must survive a round trip is exported.
type Session struct {
	ID        string    `json:"id"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Patient holds everything collected so far. For a returning patient it
	// starts as the stored record; for a new one it is built up in place.
	Patient store.Patient `json:"patient"`
	IsNew   bool          `json:"is_new"`

	// DraftPatientID is set when a new patient record was written before the
	// booking was confirmed, so a cancellation can remove it again.
	DraftPatientID string `json:"draft_patient_id,omitempty"`

	Doctor    string               `json:"doctor,omitempty"`
	Proposal  *scheduling.Proposal `json:"proposal,omitempty"`
	BookingID string               `json:"booking_id,omitempty"`
}

// NewSession starts a conversation at the greeting stage.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New().String(),
		Stage:     StageGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Active reports whether the conversation still expects input.
func (s *Session) Active() bool {
	return s.Stage != StageDone
}

// missingInfo lists the required identity fields not yet collected, in the
// order they are asked for.
func (s *Session) missingInfo() []string {
	var missing []string
	if s.Patient.Name == "" {
		missing = append(missing, "full name")
	}
	if s.Patient.DOB == "" {
		missing = append(missing, "date of birth (DD-MM-YYYY)")
	}
	if s.Doctor == "" {
		missing = append(missing, "the doctor you would like to see")
	}
	return missing
}
