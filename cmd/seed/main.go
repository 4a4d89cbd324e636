// Command seed populates the data directory with a demo doctor schedule and
// a couple of patients so the chat flow can be exercised immediately.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/cura-ai/scheduling-assistant/internal/app/bootstrap"
	appconfig "github.com/cura-ai/scheduling-assistant/internal/config"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

var demoDoctors = []string{"Dr. Arjun Reddy", "Dr. Meera Nair"}

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	days := flag.Int("days", 7, "number of upcoming days to generate schedule for")
	flag.Parse()

	logger := logging.NewText(cfg.LogLevel)

	st, err := bootstrap.BuildStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}

	slots := buildSchedule(time.Now(), *days)
	if err := st.SaveSlots(slots); err != nil {
		logger.Error("failed to write schedule", "error", err)
		os.Exit(1)
	}

	for _, p := range demoPatients() {
		if _, err := st.UpsertPatient(p); err != nil {
			logger.Error("failed to write patient", "name", p.Name, "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("seeded %d slots for %d doctors over %d days in %s\n",
		len(slots), len(demoDoctors), *days, cfg.DataDir)
}

// buildSchedule generates half-hour slots for a morning and an afternoon
// session per doctor per day.
func buildSchedule(from time.Time, days int) []store.Slot {
	sessions := [][2]int{{9, 12}, {14, 17}}

	var slots []store.Slot
	for d := 1; d <= days; d++ {
		day := from.AddDate(0, 0, d)
		for _, doctor := range demoDoctors {
			for _, session := range sessions {
				for hour := session[0]; hour < session[1]; hour++ {
					for _, minute := range []int{0, 30} {
						start := fmt.Sprintf("%02d:%02d", hour, minute)
						endHour, endMinute := hour, minute+30
						if endMinute == 60 {
							endHour, endMinute = hour+1, 0
						}
						slots = append(slots, store.Slot{
							ID:     uuid.New().String(),
							Doctor: doctor,
							Date:   day,
							Start:  start,
							End:    fmt.Sprintf("%02d:%02d", endHour, endMinute),
						})
					}
				}
			}
		}
	}
	return slots
}

func demoPatients() []store.Patient {
	return []store.Patient{
		{
			Name:     "Ravi Kumar",
			DOB:      "14-02-1990",
			Phone:    "+919812345678",
			Email:    "ravi.kumar@example.com",
			Location: "Hyderabad",
		},
		{
			Name:             "Anita Sharma",
			DOB:              "02-11-1985",
			Phone:            "+919898989898",
			Email:            "anita.sharma@example.com",
			Location:         "Mumbai",
			InsuranceCarrier: "Star Health",
			MemberID:         "SH-221144",
			GroupNumber:      "G-55",
		},
	}
}
