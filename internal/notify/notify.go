package notify

import (
	"context"
	"errors"
)

// ErrTransport is returned when a delivery attempt fails. There is exactly
// one attempt per call; retrying is the caller's decision.
var ErrTransport = errors.New("notify: delivery failed")

// SMSSender sends a text message to a patient.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender defines the interface for sending emails. Implementations can
// be swapped (SendGrid, SES, SMTP) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To         string
	ToName     string
	Subject    string
	Body       string // plain text body
	HTML       string // optional HTML body
	Attachment *Attachment
}

// Attachment is an optional file attached to an email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}
