package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cura-ai/scheduling-assistant/internal/extract"
	"github.com/cura-ai/scheduling-assistant/internal/observability/metrics"
	"github.com/cura-ai/scheduling-assistant/internal/patients"
	"github.com/cura-ai/scheduling-assistant/internal/scheduling"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// Notifier is the slice of the dispatcher the driver needs.
type Notifier interface {
	SendConfirmation(ctx context.Context, b *store.Booking) error
	SendCancellation(ctx context.Context, b *store.Booking) error
	SendIntakeForm(ctx context.Context, b *store.Booking) error
}

var (
	dateRe    = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4})\b`)
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe   = regexp.MustCompile(`\+?\d[\d\s\-()]{6,}\d`)
	cancelRe  = regexp.MustCompile(`\b(CANCEL|NO)\b`)
	confirmRe = regexp.MustCompile(`\b(CONFIRM|YES)\b`)
)

// Driver advances a scheduling conversation one stage per inbound message.
// It owns no session storage; the caller loads and saves the session around
// each call.
type Driver struct {
	extractor   extract.Extractor
	resolver    *patients.Resolver
	scheduler   *scheduling.Scheduler
	store       store.Store
	notifier    Notifier
	rephraser   Rephraser
	clinicName  string
	countryCode string
	metrics     *metrics.SchedulingMetrics
	logger      *logging.Logger
	now         func() time.Time
}

// NewDriver wires the conversation driver. A nil rephraser degrades to
// passthrough replies.
func NewDriver(ex extract.Extractor, resolver *patients.Resolver, scheduler *scheduling.Scheduler,
	st store.Store, notifier Notifier, rephraser Rephraser,
	clinicName, countryCode string, m *metrics.SchedulingMetrics, logger *logging.Logger) *Driver {
	if rephraser == nil {
		rephraser = PassthroughRephraser{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Driver{
		extractor:   ex,
		resolver:    resolver,
		scheduler:   scheduler,
		store:       st,
		notifier:    notifier,
		rephraser:   rephraser,
		clinicName:  clinicName,
		countryCode: countryCode,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Handle processes one inbound message, mutating the session in place, and
// returns the assistant's reply. Store errors are surfaced; notification
// failures are logged and the conversation continues.
func (d *Driver) Handle(ctx context.Context, s *Session, text string) (string, error) {
	text = strings.TrimSpace(text)

	var (
		reply string
		err   error
	)
	switch s.Stage {
	case StageGreeting:
		reply = d.greet(s)
	case StageCollectingInfo:
		reply, err = d.collectInfo(ctx, s, text)
	case StageInsuranceCarrier:
		reply = d.collectInsurance(s, text, StageInsuranceMember,
			&s.Patient.InsuranceCarrier, "Thank you. What is your member ID?")
	case StageInsuranceMember:
		reply = d.collectInsurance(s, text, StageInsuranceGroup,
			&s.Patient.MemberID, "Got it. And your group number?")
	case StageInsuranceGroup:
		reply = d.collectInsurance(s, text, StageCollectingDate,
			&s.Patient.GroupNumber, "Thanks, that completes your insurance details. "+
				"What date would you like to come in? Please use DD-MM-YYYY.")
	case StageCollectingDate:
		reply, err = d.collectDate(s, text)
	case StageCollectingEmail:
		reply, err = d.collectEmail(s, text)
	case StageCollectingPhone:
		reply, err = d.collectPhone(s, text)
	case StageDecision:
		reply, err = d.decide(ctx, s, text)
	case StageDone:
		reply = "This conversation is finished. Please start a new session to book another appointment."
	default:
		return "", fmt.Errorf("conversation: unknown stage %q", s.Stage)
	}
	if err != nil {
		return "", err
	}

	s.UpdatedAt = d.now().UTC()

	polished, rerr := d.rephraser.Rephrase(ctx, reply, text)
	if rerr != nil {
		d.logger.Warn("conversation: rephrase failed, using draft reply", "error", rerr)
		return reply, nil
	}
	return polished, nil
}

func (d *Driver) greet(s *Session) string {
	s.Stage = StageCollectingInfo
	return fmt.Sprintf("Hello, welcome to %s. I can help you book an appointment. "+
		"Could you share your full name, date of birth (DD-MM-YYYY), and the doctor you would like to see?",
		d.clinicName)
}

func (d *Driver) collectInfo(ctx context.Context, s *Session, text string) (string, error) {
	info, err := d.extractor.Extract(ctx, text)
	if err != nil && !errors.Is(err, extract.ErrValidation) {
		return "", err
	}
	d.mergeInfo(s, info)

	if missing := s.missingInfo(); len(missing) > 0 {
		return fmt.Sprintf("I still need %s. Could you share that?", joinList(missing)), nil
	}

	res, err := d.resolver.Resolve(extractedFromSession(s))
	if err != nil {
		return "", err
	}

	if res.Status == patients.StatusExisting {
		s.IsNew = false
		d.adoptRecord(s, res.Patient)
		d.logger.Info("conversation: returning patient recognized",
			"session_id", s.ID, "patient_id", res.Patient.ID, "reason", res.Reason)
		s.Stage = StageCollectingDate
		return fmt.Sprintf("Welcome back, %s! What date would you like to see %s? Please use DD-MM-YYYY.",
			firstName(s.Patient.Name), s.Doctor), nil
	}

	s.IsNew = true
	s.Patient.Name = res.Patient.Name
	s.Patient.DOB = res.Patient.DOB
	if s.Patient.Phone == "" {
		s.Patient.Phone = res.Patient.Phone
	}
	s.Stage = StageInsuranceCarrier
	return fmt.Sprintf("I could not find a record for you, %s, so I will set you up as a new patient. "+
		"First, who is your insurance carrier? You can say \"none\" if you are uninsured.",
		firstName(s.Patient.Name)), nil
}

func (d *Driver) collectInsurance(s *Session, text string, next Stage, field *string, prompt string) string {
	answer := strings.TrimSpace(text)
	switch strings.ToLower(answer) {
	case "none", "no", "skip", "n/a":
		answer = ""
	}
	*field = answer
	s.Stage = next
	return prompt
}

func (d *Driver) collectDate(s *Session, text string) (string, error) {
	day, ok := parseDay(text)
	if !ok {
		return "Sorry, I did not catch the date. Please give it as DD-MM-YYYY, for example 25-12-2026.", nil
	}
	today := truncateToDay(d.now())
	if day.Before(today) {
		return "That date is in the past. Could you pick an upcoming date instead?", nil
	}

	kind := scheduling.KindReturning
	if s.IsNew {
		kind = scheduling.KindNew
	}
	proposal, err := d.scheduler.Propose(s.Doctor, day, kind)
	if errors.Is(err, scheduling.ErrNoAvailability) {
		return fmt.Sprintf("I am sorry, %s has no availability on %s. Would another date work?",
			s.Doctor, day.Format(store.DateLayout)), nil
	}
	if err != nil {
		return "", err
	}

	if s.IsNew && s.Patient.ID == "" {
		created, err := d.store.UpsertPatient(s.Patient)
		if err != nil {
			return "", err
		}
		s.Patient = *created
		s.DraftPatientID = created.ID
	}

	booking, err := d.scheduler.Confirm(proposal, s.Patient)
	if errors.Is(err, store.ErrSlotConflict) {
		return fmt.Sprintf("That time was just taken. Shall we try %s again, or another date?",
			day.Format(store.DateLayout)), nil
	}
	if err != nil {
		return "", err
	}
	s.Proposal = &proposal
	s.BookingID = booking.ID

	offer := fmt.Sprintf("I am holding %s on %s at %s for you.",
		s.Doctor, day.Format(store.DateLayout), proposal.TimeSlot())
	return offer + " " + d.nextContactPrompt(s), nil
}

// nextContactPrompt advances to whichever contact detail is still missing,
// or straight to the confirm step when both are known.
func (d *Driver) nextContactPrompt(s *Session) string {
	if s.Patient.Email == "" {
		s.Stage = StageCollectingEmail
		return "What email address should I send your paperwork to?"
	}
	if s.Patient.Phone == "" {
		s.Stage = StageCollectingPhone
		return "And what phone number can we text you on?"
	}
	return d.decisionPrompt(s)
}

func (d *Driver) collectEmail(s *Session, text string) (string, error) {
	email := emailRe.FindString(text)
	if email == "" {
		return "That does not look like an email address. Could you re-enter it?", nil
	}
	s.Patient.Email = email
	if err := d.store.UpdateBookingContact(s.BookingID, email, ""); err != nil {
		return "", err
	}
	return "Thank you. " + d.nextContactPrompt(s), nil
}

func (d *Driver) collectPhone(s *Session, text string) (string, error) {
	raw := phoneRe.FindString(text)
	if raw == "" {
		raw = text
	}
	phone, err := patients.NormalizePhone(raw, d.countryCode)
	if err != nil {
		return "I could not read that phone number. Please share it with the country code, for example +919812345678.", nil
	}
	s.Patient.Phone = phone
	if err := d.store.UpdateBookingContact(s.BookingID, "", phone); err != nil {
		return "", err
	}
	return d.decisionPrompt(s), nil
}

func (d *Driver) decisionPrompt(s *Session) string {
	s.Stage = StageDecision
	return fmt.Sprintf("To recap: %s on %s at %s. Reply CONFIRM to book it or CANCEL to let it go.",
		s.Doctor, s.Proposal.Date.Format(store.DateLayout), s.Proposal.TimeSlot())
}

// decide reads the patient's verdict. A negative word anywhere wins, so a
// reply like "no, don't confirm" never books the appointment.
func (d *Driver) decide(ctx context.Context, s *Session, text string) (string, error) {
	verdict := strings.ToUpper(text)
	switch {
	case cancelRe.MatchString(verdict):
		return d.cancel(ctx, s)
	case confirmRe.MatchString(verdict):
		return d.confirm(ctx, s)
	default:
		return "Please reply CONFIRM to book the appointment or CANCEL to let it go.", nil
	}
}

func (d *Driver) confirm(ctx context.Context, s *Session) (string, error) {
	if _, err := d.store.UpsertPatient(s.Patient); err != nil {
		return "", err
	}
	if err := d.store.UpdateBookingStatus(s.BookingID, store.BookingConfirmed); err != nil {
		return "", err
	}
	d.metrics.ObserveBooking("confirmed")

	booking, err := d.store.GetBooking(s.BookingID)
	if err != nil {
		return "", err
	}
	if err := d.notifier.SendConfirmation(ctx, booking); err != nil {
		d.logger.Error("conversation: confirmation sms failed", "booking_id", booking.ID, "error", err)
	}
	if s.IsNew {
		if err := d.notifier.SendIntakeForm(ctx, booking); err != nil {
			d.logger.Error("conversation: intake form email failed", "booking_id", booking.ID, "error", err)
		}
	}

	s.Stage = StageDone
	reply := fmt.Sprintf("Your appointment with %s on %s at %s is confirmed. "+
		"You will receive a text message shortly.",
		booking.Doctor, booking.Date.Format(store.DateLayout), booking.TimeSlot)
	if s.IsNew {
		reply += " Since this is your first visit, I have also emailed you our new patient intake form."
	}
	return reply, nil
}

func (d *Driver) cancel(ctx context.Context, s *Session) (string, error) {
	booking, err := d.store.GetBooking(s.BookingID)
	if err != nil {
		return "", err
	}
	if err := d.scheduler.Cancel(booking); err != nil {
		return "", err
	}
	d.metrics.ObserveBooking("cancelled")

	if s.DraftPatientID != "" {
		if err := d.store.RemovePatient(s.DraftPatientID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		s.DraftPatientID = ""
	}
	if err := d.notifier.SendCancellation(ctx, booking); err != nil {
		d.logger.Error("conversation: cancellation sms failed", "booking_id", booking.ID, "error", err)
	}

	s.Stage = StageDone
	return "No problem, I have released that time. Feel free to reach out whenever you would like to book again.", nil
}

// mergeInfo folds newly extracted fields into the session, never overwriting
// a value that was already collected.
func (d *Driver) mergeInfo(s *Session, info extract.PatientInfo) {
	if s.Patient.Name == "" {
		s.Patient.Name = extract.Value(info.Name)
	}
	if s.Patient.DOB == "" {
		if dob, ok := extract.NormalizeDOB(extract.Value(info.DOB)); ok {
			s.Patient.DOB = dob
		}
	}
	if s.Doctor == "" {
		s.Doctor = extract.Value(info.Doctor)
	}
	if s.Patient.Location == "" {
		s.Patient.Location = extract.Value(info.Location)
	}
	if s.Patient.Email == "" {
		s.Patient.Email = extract.Value(info.Email)
	}
	if s.Patient.Phone == "" {
		if raw := extract.Value(info.Phone); raw != "" {
			if phone, err := patients.NormalizePhone(raw, d.countryCode); err == nil {
				s.Patient.Phone = phone
			}
		}
	}
}

// adoptRecord swaps in the stored patient record, keeping contact details
// collected this conversation when the record lacks them.
func (d *Driver) adoptRecord(s *Session, record store.Patient) {
	email, phone, location := s.Patient.Email, s.Patient.Phone, s.Patient.Location
	s.Patient = record
	if s.Patient.Email == "" {
		s.Patient.Email = email
	}
	if s.Patient.Phone == "" {
		s.Patient.Phone = phone
	}
	if s.Patient.Location == "" {
		s.Patient.Location = location
	}
}

func extractedFromSession(s *Session) extract.PatientInfo {
	info := extract.PatientInfo{}
	if s.Patient.Name != "" {
		info.Name = &s.Patient.Name
	}
	if s.Patient.DOB != "" {
		info.DOB = &s.Patient.DOB
	}
	if s.Patient.Phone != "" {
		info.Phone = &s.Patient.Phone
	}
	if s.Patient.Email != "" {
		info.Email = &s.Patient.Email
	}
	if s.Patient.Location != "" {
		info.Location = &s.Patient.Location
	}
	return info
}

func parseDay(text string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	dd, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	day, err := time.Parse(store.DateLayout, fmt.Sprintf("%02d-%02d-%s", dd, mm, m[3]))
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
