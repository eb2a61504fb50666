package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	StorePrefix string

	AllowEnglish bool

	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string
	JWTExpireHours    int

	RegistryPath   string
	StoragePath    string
	SampleDocsPath string

	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int

	ResilienceRetryMaxAttempts int
	ResilienceBreakerEnabled   bool
}

// Load reads configuration from the environment, with a best-effort .env
// file load first. Every value has a development fallback except the
// secrets, which default to empty and disable the features they guard.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8000"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:  mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:   mustEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: mustEnv("GEMINI_BASE_URL", ""),

		StorePrefix: mustEnv("STORE_PREFIX", "ulss9"),

		AllowEnglish: mustEnvBool("ALLOW_ENGLISH", true),

		AdminUsername:     mustEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: mustEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         mustEnv("JWT_SECRET", ""),
		JWTExpireHours:    mustEnvInt("JWT_EXPIRE_HOURS", 24),

		RegistryPath:   mustEnv("REGISTRY_PATH", "./data/store_descriptions.json"),
		StoragePath:    mustEnv("STORAGE_PATH", "./data/uploads"),
		SampleDocsPath: mustEnv("SAMPLE_DOCS_PATH", "./sample_docs"),

		RateLimitRPS:   mustEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: mustEnvInt("RATE_LIMIT_BURST", 20),
		MaxInFlight:    mustEnvInt("MAX_IN_FLIGHT", 64),

		ResilienceRetryMaxAttempts: mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		ResilienceBreakerEnabled:   mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
