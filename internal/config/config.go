package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Flat-file record store. The CSV layout is deliberately human-editable
	// so clinic staff can inspect and correct records directly.
	DataDir        string
	IntakeFormPath string

	ClinicName string

	// Patient phone numbers without a country code are normalized with this
	// prefix before E.164 formatting.
	DefaultCountryCode string

	// Ordered day offsets before the appointment at which reminders go out.
	ReminderOffsetsDays []int

	// Gemini LLM for patient-info extraction and reply rephrasing. When the
	// key is absent the heuristic extractor and canned replies are used.
	GeminiAPIKey  string
	GeminiModelID string

	// Twilio SMS. When credentials are absent sends are simulated.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// SendGrid email. When the key is absent sends are simulated.
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Origins allowed to call the chat API from the browser.
	CORSAllowedOrigins []string

	// Session storage for the chat surface: "memory" or "redis".
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:        getEnv("DATA_DIR", "data"),
		IntakeFormPath: getEnv("INTAKE_FORM_PATH", "data/New_Patient_Intake_Form.pdf"),

		ClinicName: getEnv("CLINIC_NAME", "Cura Health Clinic"),

		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "+91"),

		ReminderOffsetsDays: getEnvAsIntList("REMINDER_OFFSETS_DAYS", []int{3, 2, 1}),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Cura Scheduling"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsList parses a comma-separated list of strings, dropping empties.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvAsIntList parses a comma-separated list of integers. Malformed
// entries invalidate the whole list and the default is returned, so a typo
// in REMINDER_OFFSETS_DAYS cannot silently drop a reminder stage.
func getEnvAsIntList(key string, defaultValue []int) []int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return defaultValue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
