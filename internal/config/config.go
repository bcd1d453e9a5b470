package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port        string
	Env         string
	CORSOrigins []string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth. Tokens are issued by the external identity provider; the API only
	// verifies them.
	JWTSecret string

	// IngestAPIKey guards the machine-to-machine email ingest route.
	IngestAPIKey string

	// MailTokenKey seals stored mail access tokens. Hex or raw, 32 bytes.
	MailTokenKey string

	// Domain
	DefaultCurrency string
	MonthResetDay   int
	RulesFile       string

	// Sync
	RedisURL         string
	NotifyWorkers    int
	NotifyBuffer     int
	GmailMaxResults  int64
	GmailLookback    string
	FetchConcurrency int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "spendsync"),
		DBPassword: getEnv("DB_PASSWORD", "spendsync"),
		DBName:     getEnv("DB_NAME", "spendsync"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:    getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		MailTokenKey: getEnv("MAIL_TOKEN_KEY", ""),
		IngestAPIKey: getEnv("INGEST_API_KEY", ""),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "SGD"),
		MonthResetDay:   getEnvInt("MONTH_RESET_DAY", 1),
		RulesFile:       getEnv("RULES_FILE", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		NotifyWorkers:    getEnvInt("NOTIFY_WORKERS", 2),
		NotifyBuffer:     getEnvInt("NOTIFY_BUFFER", 100),
		GmailMaxResults:  int64(getEnvInt("GMAIL_MAX_RESULTS", 50)),
		GmailLookback:    getEnv("GMAIL_LOOKBACK", "60d"),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 8),
	}

	if config.MonthResetDay < 1 || config.MonthResetDay > 28 {
		log.Printf("Warning: MONTH_RESET_DAY must be between 1 and 28, got %d; using 1\n", config.MonthResetDay)
		config.MonthResetDay = 1
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// FetchTimeout bounds a whole mail fetch.
const FetchTimeout = 30 * time.Second

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
