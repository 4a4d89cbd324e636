package notify

import (
	"fmt"

	"github.com/cura-ai/scheduling-assistant/internal/store"
)

// ConfirmationSMS renders the booking confirmation text.
func ConfirmationSMS(b *store.Booking) string {
	return fmt.Sprintf(
		"Hi %s, thank you for booking with us. Your appointment with %s on %s is confirmed. "+
			"Your time slot is %s. Please arrive 15 minutes early.",
		b.PatientName, b.Doctor, b.Date.Format(store.DateLayout), b.TimeSlot,
	)
}

// CancellationSMS renders the cancellation notice.
func CancellationSMS(b *store.Booking) string {
	return fmt.Sprintf(
		"Hi %s, your appointment with %s on %s has been cancelled as requested.",
		b.PatientName, b.Doctor, b.Date.Format(store.DateLayout),
	)
}

// ReminderSMS renders the staged reminder for the given day offset. The
// wording per stage follows the clinic's outreach script: a plain reminder
// first, then an intake-form nudge, then a confirm-or-cancel prompt the day
// before. Offsets outside the standard three reuse the plain wording.
func ReminderSMS(b *store.Booking, offsetDays int) string {
	switch offsetDays {
	case 2:
		return fmt.Sprintf(
			"Hi %s, your appointment with %s is in 2 days. Have you completed your intake form? Reply YES or NO.",
			b.PatientName, b.Doctor,
		)
	case 1:
		return fmt.Sprintf(
			"Reminder, %s: your appointment with %s is tomorrow at %s. Reply CONFIRM if you are coming or CANCEL to cancel.",
			b.PatientName, b.Doctor, b.TimeSlot,
		)
	default:
		return fmt.Sprintf(
			"Hello %s, this is a reminder of your appointment with %s on %s at %s.",
			b.PatientName, b.Doctor, b.Date.Format(store.DateLayout), b.TimeSlot,
		)
	}
}

// IntakeFormEmail renders the new-patient intake email. The PDF itself is
// attached by the dispatcher.
func IntakeFormEmail(patientName, clinicName string) (subject, html string) {
	subject = "Your New Patient Intake Form"
	html = fmt.Sprintf(
		"Dear %s,<br><br>"+
			"Thank you for scheduling your appointment with us. Please find the New Patient Intake Form attached to this email.<br><br>"+
			"To help us prepare for your visit, please complete this form and either email it back to us or bring a printed copy to your appointment.<br><br>"+
			"We look forward to seeing you soon.<br><br>"+
			"Sincerely,<br>%s",
		patientName, clinicName,
	)
	return subject, html
}
