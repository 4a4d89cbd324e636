// Package bootstrap wires application services from configuration. Each
// Build function degrades gracefully when optional credentials are absent,
// so a bare checkout runs end to end with simulated transports.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/cura-ai/scheduling-assistant/internal/config"
	"github.com/cura-ai/scheduling-assistant/internal/conversation"
	"github.com/cura-ai/scheduling-assistant/internal/extract"
	"github.com/cura-ai/scheduling-assistant/internal/notify"
	"github.com/cura-ai/scheduling-assistant/internal/observability/metrics"
	"github.com/cura-ai/scheduling-assistant/internal/patients"
	"github.com/cura-ai/scheduling-assistant/internal/reminders"
	"github.com/cura-ai/scheduling-assistant/internal/scheduling"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// BuildStore opens the CSV record store under the configured data directory.
func BuildStore(cfg *appconfig.Config, logger *logging.Logger) (*store.CSVStore, error) {
	return store.NewCSVStore(cfg.DataDir, cfg.ReminderOffsetsDays, logger)
}

// BuildExtractor returns the Gemini extractor when an API key is configured
// and the heuristic one otherwise. The returned closer is always safe to call.
func BuildExtractor(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (extract.Extractor, func(), error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("no Gemini API key configured; using heuristic extraction")
		return extract.NewHeuristicExtractor(), func() {}, nil
	}
	ex, err := extract.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: build extractor: %w", err)
	}
	return ex, func() { _ = ex.Close() }, nil
}

// BuildRephraser returns the Gemini rephraser when an API key is configured,
// otherwise nil so the driver falls back to passthrough replies.
func BuildRephraser(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.Rephraser, func(), error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("no Gemini API key configured; replies will not be rephrased")
		return nil, func() {}, nil
	}
	rp, err := conversation.NewGeminiRephraser(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: build rephraser: %w", err)
	}
	return rp, func() { _ = rp.Close() }, nil
}

// BuildDispatcher wires the SMS and email transports. Missing credentials
// produce the simulated senders.
func BuildDispatcher(cfg *appconfig.Config, m *metrics.SchedulingMetrics, logger *logging.Logger) *notify.Dispatcher {
	var sms notify.SMSSender
	if twilio := notify.NewTwilioSMSSender(notify.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
	}, logger); twilio != nil {
		sms = twilio
	} else {
		logger.Warn("Twilio not configured; SMS sends will be simulated")
	}

	var email notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		email = sg
	} else {
		logger.Warn("SendGrid not configured; email sends will be simulated")
	}

	return notify.NewDispatcher(sms, email, cfg.ClinicName, cfg.IntakeFormPath, m, logger)
}

// BuildSessionStore returns the configured chat session store. The closer
// releases the Redis connection when that backend is selected.
func BuildSessionStore(cfg *appconfig.Config, logger *logging.Logger) (conversation.SessionStore, func(), error) {
	if cfg.SessionBackend != "redis" {
		return conversation.NewMemorySessionStore(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	logger.Info("using redis session store", "addr", cfg.RedisAddr)
	return conversation.NewRedisSessionStore(client), func() { _ = client.Close() }, nil
}

// BuildDriver assembles the full conversation pipeline. The returned closer
// releases any model clients.
func BuildDriver(ctx context.Context, cfg *appconfig.Config, st *store.CSVStore,
	m *metrics.SchedulingMetrics, logger *logging.Logger) (*conversation.Driver, func(), error) {
	extractor, closeExtractor, err := BuildExtractor(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	rephraser, closeRephraser, err := BuildRephraser(ctx, cfg, logger)
	if err != nil {
		closeExtractor()
		return nil, nil, err
	}

	driver := conversation.NewDriver(
		extractor,
		patients.NewResolver(st, cfg.DefaultCountryCode, logger),
		scheduling.New(st, logger),
		st,
		BuildDispatcher(cfg, m, logger),
		rephraser,
		cfg.ClinicName,
		cfg.DefaultCountryCode,
		m,
		logger,
	)
	closer := func() {
		closeRephraser()
		closeExtractor()
	}
	return driver, closer, nil
}

// BuildReminderAgent assembles the reminder batch agent over the same
// dispatcher the conversation uses.
func BuildReminderAgent(cfg *appconfig.Config, st *store.CSVStore,
	m *metrics.SchedulingMetrics, logger *logging.Logger) *reminders.Agent {
	dispatcher := BuildDispatcher(cfg, m, logger)
	return reminders.NewAgent(st, dispatcher, cfg.ReminderOffsetsDays, m, logger)
}
