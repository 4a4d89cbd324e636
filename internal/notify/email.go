package notify

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender, or nil when the API
// key is absent so callers can fall back to the simulated sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" || cfg.FromEmail == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Cura Scheduling"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid, attaching the intake form when present.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	plain := msg.Body
	if plain == "" {
		plain = msg.HTML
	}
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, plain, html)

	if msg.Attachment != nil {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(msg.Attachment.Data))
		attachment.SetFilename(msg.Attachment.Filename)
		attachment.SetType(msg.Attachment.ContentType)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("%w: sendgrid: %v", ErrTransport, err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return fmt.Errorf("%w: sendgrid returned status %d", ErrTransport, response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// SimulatedEmailSender logs the email and reports success. Used when
// SendGrid is not configured.
type SimulatedEmailSender struct {
	logger *logging.Logger
}

// NewSimulatedEmailSender creates the no-delivery email sender.
func NewSimulatedEmailSender(logger *logging.Logger) *SimulatedEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedEmailSender{logger: logger}
}

// Send logs the would-be email and succeeds.
func (s *SimulatedEmailSender) Send(_ context.Context, msg EmailMessage) error {
	attached := ""
	if msg.Attachment != nil {
		attached = msg.Attachment.Filename
	}
	s.logger.Info("simulated email send", "to", msg.To, "subject", msg.Subject, "attachment", attached)
	return nil
}
