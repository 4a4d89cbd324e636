package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cura-ai/scheduling-assistant/internal/observability/metrics"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// Dispatcher formats booking messages and hands them to the transports.
// Every method makes at most one delivery attempt; failures are reported
// upward, never retried here.
type Dispatcher struct {
	sms            SMSSender
	email          EmailSender
	clinicName     string
	intakeFormPath string
	metrics        *metrics.SchedulingMetrics
	logger         *logging.Logger
}

// NewDispatcher creates a dispatcher. Nil senders are replaced with the
// simulated ones so the flow degrades to logged sends without credentials.
func NewDispatcher(sms SMSSender, email EmailSender, clinicName, intakeFormPath string,
	m *metrics.SchedulingMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if sms == nil {
		sms = NewSimulatedSMSSender(logger)
	}
	if email == nil {
		email = NewSimulatedEmailSender(logger)
	}
	return &Dispatcher{
		sms:            sms,
		email:          email,
		clinicName:     clinicName,
		intakeFormPath: intakeFormPath,
		metrics:        m,
		logger:         logger,
	}
}

// SendConfirmation texts the patient that the booking is confirmed.
func (d *Dispatcher) SendConfirmation(ctx context.Context, b *store.Booking) error {
	return d.sendSMS(ctx, b.Phone, ConfirmationSMS(b))
}

// SendCancellation texts the patient that the booking was cancelled.
func (d *Dispatcher) SendCancellation(ctx context.Context, b *store.Booking) error {
	return d.sendSMS(ctx, b.Phone, CancellationSMS(b))
}

// SendReminder texts the staged reminder for the given offset.
func (d *Dispatcher) SendReminder(ctx context.Context, b *store.Booking, offsetDays int) error {
	return d.sendSMS(ctx, b.Phone, ReminderSMS(b, offsetDays))
}

func (d *Dispatcher) sendSMS(ctx context.Context, to, body string) error {
	if to == "" {
		d.metrics.ObserveNotify("sms", "skipped")
		d.logger.Warn("notify: no phone number on booking, skipping sms")
		return nil
	}
	if err := d.sms.SendSMS(ctx, to, body); err != nil {
		d.metrics.ObserveNotify("sms", "failed")
		return err
	}
	d.metrics.ObserveNotify("sms", "sent")
	return nil
}

// SendIntakeForm emails the new-patient intake form as a PDF attachment.
// A missing form file is a configuration error, not a transport one.
func (d *Dispatcher) SendIntakeForm(ctx context.Context, b *store.Booking) error {
	if b.Email == "" {
		d.metrics.ObserveNotify("email", "skipped")
		d.logger.Warn("notify: no email on booking, skipping intake form", "booking_id", b.ID)
		return nil
	}

	subject, html := IntakeFormEmail(b.PatientName, d.clinicName)
	msg := EmailMessage{
		To:      b.Email,
		ToName:  b.PatientName,
		Subject: subject,
		HTML:    html,
	}

	if d.intakeFormPath != "" {
		data, err := os.ReadFile(d.intakeFormPath)
		if err != nil {
			d.metrics.ObserveNotify("email", "failed")
			return fmt.Errorf("notify: read intake form: %w", err)
		}
		msg.Attachment = &Attachment{
			Filename:    filepath.Base(d.intakeFormPath),
			ContentType: "application/pdf",
			Data:        data,
		}
	}

	if err := d.email.Send(ctx, msg); err != nil {
		d.metrics.ObserveNotify("email", "failed")
		return err
	}
	d.metrics.ObserveNotify("email", "sent")
	return nil
}
