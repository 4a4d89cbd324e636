// Command chat runs the scheduling conversation on the terminal. Useful for
// demos and for trying prompt changes without the HTTP surface.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cura-ai/scheduling-assistant/internal/app/bootstrap"
	appconfig "github.com/cura-ai/scheduling-assistant/internal/config"
	"github.com/cura-ai/scheduling-assistant/internal/conversation"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewText("warn")

	st, err := bootstrap.BuildStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	driver, closeDriver, err := bootstrap.BuildDriver(ctx, cfg, st, nil, logger)
	if err != nil {
		logger.Error("failed to build conversation driver", "error", err)
		os.Exit(1)
	}
	defer closeDriver()

	session := conversation.NewSession()
	fmt.Printf("%s scheduling assistant. Type your message, or 'quit' to exit.\n\n", cfg.ClinicName)

	scanner := bufio.NewScanner(os.Stdin)
	for session.Active() {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "quit") || strings.EqualFold(text, "exit") {
			break
		}

		reply, err := driver.Handle(ctx, session, text)
		if err != nil {
			logger.Error("turn failed", "error", err)
			fmt.Println("assistant> Sorry, something went wrong. Please try again.")
			continue
		}
		fmt.Printf("assistant> %s\n\n", reply)
	}
	fmt.Println("Goodbye.")
}
