// Command reminders performs one reminder batch run over all confirmed
// bookings. Run it from cron, once a day.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cura-ai/scheduling-assistant/internal/app/bootstrap"
	appconfig "github.com/cura-ai/scheduling-assistant/internal/config"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewText(cfg.LogLevel)
	logger.Info("starting reminder run", "offsets_days", cfg.ReminderOffsetsDays)

	st, err := bootstrap.BuildStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}

	agent := bootstrap.BuildReminderAgent(cfg, st, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := agent.Run(ctx, time.Now())
	if err != nil {
		logger.Error("reminder run failed", "error", err)
		os.Exit(1)
	}
	if report.Failed > 0 {
		os.Exit(1)
	}
}
