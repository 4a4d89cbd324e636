// Command e2e runs a scripted booking conversation and a reminder pass
// against a throwaway data directory, with simulated transports. It exits
// non-zero if any step misbehaves, so it doubles as a smoke test.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cura-ai/scheduling-assistant/internal/conversation"
	"github.com/cura-ai/scheduling-assistant/internal/extract"
	"github.com/cura-ai/scheduling-assistant/internal/notify"
	"github.com/cura-ai/scheduling-assistant/internal/patients"
	"github.com/cura-ai/scheduling-assistant/internal/reminders"
	"github.com/cura-ai/scheduling-assistant/internal/scheduling"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "e2e failed:", err)
		os.Exit(1)
	}
	fmt.Println("e2e passed")
}

func run() error {
	logger := logging.NewText("warn")
	offsets := []int{3, 2, 1}

	dir, err := os.MkdirTemp("", "cura-e2e-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	st, err := store.NewCSVStore(dir, offsets, logger)
	if err != nil {
		return err
	}

	appointment := time.Now().UTC().AddDate(0, 0, 3)
	if err := st.SaveSlots([]store.Slot{
		{ID: "s1", Doctor: "Dr. Mehta", Date: appointment, Start: "09:00", End: "09:30"},
		{ID: "s2", Doctor: "Dr. Mehta", Date: appointment, Start: "09:30", End: "10:00"},
	}); err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(nil, nil, "Cura Health Clinic", "", nil, logger)
	driver := conversation.NewDriver(
		extract.NewHeuristicExtractor(),
		patients.NewResolver(st, "+91", logger),
		scheduling.New(st, logger),
		st,
		dispatcher,
		nil,
		"Cura Health Clinic",
		"+91",
		nil,
		logger,
	)

	ctx := context.Background()
	session := conversation.NewSession()
	script := []string{
		"hello",
		"my name is Asha Verma, my dob is 03-07-1995 and I want to see Dr. Mehta",
		"Star Health",
		"MEM-4411",
		"GRP-92",
		appointment.Format(store.DateLayout),
		"asha@example.com",
		"9812345678",
		"CONFIRM",
	}
	for _, line := range script {
		reply, err := driver.Handle(ctx, session, line)
		if err != nil {
			return fmt.Errorf("turn %q: %w", line, err)
		}
		fmt.Printf("you> %s\nassistant> %s\n\n", line, reply)
	}
	if session.Stage != conversation.StageDone {
		return fmt.Errorf("conversation ended in stage %q, want %q", session.Stage, conversation.StageDone)
	}

	booking, err := st.GetBooking(session.BookingID)
	if err != nil {
		return err
	}
	if booking.Status != store.BookingConfirmed {
		return fmt.Errorf("booking status %q, want confirmed", booking.Status)
	}

	agent := reminders.NewAgent(st, dispatcher, offsets, nil, logger)
	report, err := agent.Run(ctx, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("reminder run: scanned=%d sent=%d superseded=%d failed=%d\n",
		report.Scanned, report.Sent, report.Superseded, report.Failed)
	if report.Sent != 1 || report.Failed != 0 {
		return fmt.Errorf("expected exactly one reminder sent, got %+v", report)
	}

	// A second run must not re-send: the flag is durable.
	report, err = agent.Run(ctx, time.Now())
	if err != nil {
		return err
	}
	if report.Sent != 0 {
		return fmt.Errorf("reminder re-sent on second run: %+v", report)
	}
	return nil
}
