package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Business scheduling rules
	BusinessName      string
	BusinessTimezone  string
	SlotMinutes       int
	WorkStart         string
	WorkEnd           string
	MinBufferMinutes  int
	SearchHorizonDays int
	ShortlistSize     int
	CalendarTimeout   time.Duration
	ShortlistMaxAge   time.Duration
	EventSummary      string

	// Google Calendar Configuration
	CalendarID            string
	GoogleClientEmail     string
	GooglePrivateKey      string
	GoogleImpersonateUser string
	GoogleCredentialsJSON string
	UseMemoryCalendar     bool

	// Planner: "gemini", "bedrock" or "rules". Empty picks gemini when a key
	// is configured and rules otherwise.
	LLMProvider    string
	GeminiAPIKey   string
	GeminiModel    string
	BedrockModelID string

	// AWS Configuration
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Session store
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionsTable string
	SessionTTL    time.Duration

	TranscriptBucket      string
	BookingEventsQueueURL string

	DatabaseURL string

	// Email: "sendgrid", "ses" or "log".
	EmailProvider      string
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	BookingNotifyEmail string
	BookingReplyTo     string

	AdminJWTSecret string

	// HTTP edge
	CORSAllowedOrigins string
	TurnRatePerSecond  float64
	TurnRateBurst      int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		BusinessName:      getEnv("BUSINESS_NAME", "American Developer Group"),
		BusinessTimezone:  getEnv("BUSINESS_TZ", "America/New_York"),
		SlotMinutes:       getEnvAsInt("SLOT_MINUTES", 60),
		WorkStart:         getEnv("WORK_START", "09:00"),
		WorkEnd:           getEnv("WORK_END", "18:00"),
		MinBufferMinutes:  getEnvAsInt("MIN_BUFFER_MIN", 120),
		SearchHorizonDays: getEnvAsInt("SEARCH_HORIZON_DAYS", 10),
		ShortlistSize:     getEnvAsInt("SHORTLIST_SIZE", 3),
		CalendarTimeout:   getEnvAsDuration("CALENDAR_TIMEOUT", 10*time.Second),
		ShortlistMaxAge:   getEnvAsDuration("SHORTLIST_MAX_AGE", 15*time.Minute),
		EventSummary:      getEnv("EVENT_SUMMARY", "Home visit: 3D scan & estimate"),

		// Google Calendar Configuration
		CalendarID:            getEnv("CALENDAR_ID", ""),
		GoogleClientEmail:     getEnv("GOOGLE_CLIENT_EMAIL", ""),
		GooglePrivateKey:      strings.ReplaceAll(getEnv("GOOGLE_PRIVATE_KEY", ""), `\n`, "\n"),
		GoogleImpersonateUser: getEnv("GOOGLE_IMPERSONATE_USER", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		UseMemoryCalendar:     getEnvAsBool("USE_MEMORY_CALENDAR", false),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "")),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),

		// AWS Configuration
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionsTable: getEnv("SESSIONS_TABLE", ""),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		TranscriptBucket:      getEnv("TRANSCRIPT_BUCKET", ""),
		BookingEventsQueueURL: getEnv("BOOKING_EVENTS_QUEUE_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		EmailProvider:      strings.ToLower(getEnv("EMAIL_PROVIDER", "sendgrid")),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "AI Receptionist"),
		BookingNotifyEmail: getEnv("BOOKING_NOTIFY_EMAIL", ""),
		BookingReplyTo:     getEnv("BOOKING_REPLY_TO", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		TurnRatePerSecond:  getEnvAsFloat("TURN_RATE_PER_SEC", 1),
		TurnRateBurst:      getEnvAsInt("TURN_RATE_BURST", 5),
	}
}

// Validate checks the scheduling settings and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.BusinessTimezone); err != nil {
		errs = append(errs, fmt.Errorf("config: BUSINESS_TZ %q: %w", c.BusinessTimezone, err))
	}
	start, startErr := ParseClock(c.WorkStart)
	if startErr != nil {
		errs = append(errs, fmt.Errorf("config: WORK_START: %w", startErr))
	}
	end, endErr := ParseClock(c.WorkEnd)
	if endErr != nil {
		errs = append(errs, fmt.Errorf("config: WORK_END: %w", endErr))
	}
	if startErr == nil && endErr == nil && end <= start {
		errs = append(errs, fmt.Errorf("config: WORK_END %s must be after WORK_START %s", c.WorkEnd, c.WorkStart))
	}
	if c.SlotMinutes <= 0 {
		errs = append(errs, fmt.Errorf("config: SLOT_MINUTES must be positive, got %d", c.SlotMinutes))
	}
	if c.MinBufferMinutes < 0 {
		errs = append(errs, fmt.Errorf("config: MIN_BUFFER_MIN must not be negative, got %d", c.MinBufferMinutes))
	}
	if c.SearchHorizonDays <= 0 {
		errs = append(errs, fmt.Errorf("config: SEARCH_HORIZON_DAYS must be positive, got %d", c.SearchHorizonDays))
	}
	if c.ShortlistSize < 1 || c.ShortlistSize > 3 {
		errs = append(errs, fmt.Errorf("config: SHORTLIST_SIZE must be between 1 and 3, got %d", c.ShortlistSize))
	}
	if c.CalendarTimeout <= 0 {
		errs = append(errs, errors.New("config: CALENDAR_TIMEOUT must be positive"))
	}
	switch c.LLMProvider {
	case "", "gemini", "bedrock", "rules":
	default:
		errs = append(errs, fmt.Errorf("config: LLM_PROVIDER %q is not one of gemini, bedrock, rules", c.LLMProvider))
	}
	if c.LLMProvider == "gemini" && strings.TrimSpace(c.GeminiAPIKey) == "" {
		errs = append(errs, errors.New("config: LLM_PROVIDER=gemini requires GEMINI_API_KEY"))
	}
	switch c.EmailProvider {
	case "", "sendgrid", "ses", "log":
	default:
		errs = append(errs, fmt.Errorf("config: EMAIL_PROVIDER %q is not one of sendgrid, ses, log", c.EmailProvider))
	}

	if c.TurnRatePerSecond < 0 || c.TurnRateBurst < 0 {
		errs = append(errs, errors.New("config: TURN_RATE_PER_SEC and TURN_RATE_BURST must not be negative"))
	}

	return errors.Join(errs...)
}

// Location returns the business timezone, falling back to UTC when the
// configured name cannot be loaded. Call Validate first to surface the error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "production", "prod":
		return true
	}
	return false
}

// Planner resolves which planner backend to run.
func (c *Config) Planner() string {
	if c.LLMProvider != "" {
		return c.LLMProvider
	}
	if strings.TrimSpace(c.GeminiAPIKey) != "" {
		return "gemini"
	}
	return "rules"
}

// ParseClock parses a wall-clock "HH:MM" value into minutes after midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q (want HH:MM)", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	total := hour*60 + minute
	if total > 24*60 {
		return 0, fmt.Errorf("clock value %q is past midnight", value)
	}
	return total, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
