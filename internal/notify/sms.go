package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSMSSender sends SMS through the Twilio Messages API.
type TwilioSMSSender struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *logging.Logger
}

// TwilioConfig holds Twilio credentials and the sending number.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// NewTwilioSMSSender creates a Twilio sender, or nil when any credential is
// missing so callers can fall back to the simulated sender.
func NewTwilioSMSSender(cfg TwilioConfig, logger *logging.Logger) *TwilioSMSSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSMSSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// SendSMS posts one message to Twilio. One attempt, no retry.
func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, s.accountSID)

	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("twilio send failed", "error", err, "to", to)
		return fmt.Errorf("%w: twilio: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.logger.Error("twilio returned error status", "status", resp.StatusCode, "body", string(payload), "to", to)
		return fmt.Errorf("%w: twilio returned status %d", ErrTransport, resp.StatusCode)
	}

	s.logger.Info("sms sent via twilio", "to", to, "status", resp.StatusCode)
	return nil
}

// SimulatedSMSSender logs the message and reports success. Used when Twilio
// credentials are absent so booking flows stay testable end to end.
type SimulatedSMSSender struct {
	logger *logging.Logger
}

// NewSimulatedSMSSender creates the no-delivery SMS sender.
func NewSimulatedSMSSender(logger *logging.Logger) *SimulatedSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedSMSSender{logger: logger}
}

// SendSMS logs the would-be message and succeeds.
func (s *SimulatedSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info("simulated sms send", "to", to, "body", body)
	return nil
}
