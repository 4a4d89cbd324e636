package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "+91", cfg.DefaultCountryCode)
	assert.Equal(t, []int{3, 2, 1}, cfg.ReminderOffsetsDays)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModelID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/clinic")
	t.Setenv("DEFAULT_COUNTRY_CODE", "+1")
	t.Setenv("SESSION_BACKEND", "Redis")

	cfg := Load()

	assert.Equal(t, "/var/clinic", cfg.DataDir)
	assert.Equal(t, "+1", cfg.DefaultCountryCode)
	assert.Equal(t, "redis", cfg.SessionBackend)
}

func TestCORSAllowedOrigins(t *testing.T) {
	cfg := Load()
	assert.Nil(t, cfg.CORSAllowedOrigins)

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://clinic.example.com, https://widget.example.com,")
	cfg = Load()
	assert.Equal(t, []string{"https://clinic.example.com", "https://widget.example.com"}, cfg.CORSAllowedOrigins)
}

func TestReminderOffsets(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []int
	}{
		{"custom list", "7,3,1", []int{7, 3, 1}},
		{"whitespace tolerated", " 5 , 2 ", []int{5, 2}},
		{"malformed falls back", "3,two,1", []int{3, 2, 1}},
		{"zero rejected", "3,0", []int{3, 2, 1}},
		{"negative rejected", "-1", []int{3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REMINDER_OFFSETS_DAYS", tt.value)
			cfg := Load()
			assert.Equal(t, tt.want, cfg.ReminderOffsetsDays)
		})
	}
}
