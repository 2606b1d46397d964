// Package config provides configuration for the fixy assistant service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data backends.
const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Tenant data store
	DataBackend            string
	DatabaseURL            string
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseAnonKey        string

	// Rate limit and confirmation state
	StateBackend string
	RedisURL     string

	// LLM
	GroqAPIKey       string
	GroqBaseURL      string
	LLMModel         string
	LLMFallbackModel string
	LLMTimeout       time.Duration
	LLMMaxRetries    int
	LLMTemperature   float64
	LLMMaxTokens     int
	BreakerThreshold int
	BreakerReset     time.Duration

	// Turn handling
	TurnTimeout     time.Duration
	HistoryWindow   int
	MaxMessageChars int
	Timezone        string

	// Rate limiting
	RateLimitMax    int
	RateLimitWindow time.Duration
	RateLimitSweep  time.Duration

	// Pending confirmations
	ConfirmationTTL   time.Duration
	ConfirmationSweep time.Duration

	// Policy
	PolicyFile string

	// Auth
	AuthMode     string
	StaticTokens map[string]string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:               getEnvInt("HTTP_PORT", 8080),
		DataBackend:            getEnv("DATA_BACKEND", BackendSQLite),
		DatabaseURL:            getEnv("DATABASE_URL", "file:fixy.db?cache=shared&mode=rwc"),
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		StateBackend:           getEnv("STATE_BACKEND", BackendMemory),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
		GroqAPIKey:             getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:            getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:               getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMFallbackModel:       getEnv("LLM_FALLBACK_MODEL", "llama-3.1-8b-instant"),
		LLMTimeout:             time.Duration(getEnvInt("LLM_TIMEOUT_MS", 25000)) * time.Millisecond,
		LLMMaxRetries:          getEnvInt("LLM_MAX_RETRIES", 2),
		LLMTemperature:         getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:           getEnvInt("LLM_MAX_TOKENS", 1500),
		BreakerThreshold:       getEnvInt("LLM_BREAKER_THRESHOLD", 5),
		BreakerReset:           time.Duration(getEnvInt("LLM_BREAKER_RESET_SECONDS", 30)) * time.Second,
		TurnTimeout:            time.Duration(getEnvInt("TURN_TIMEOUT_MS", 30000)) * time.Millisecond,
		HistoryWindow:          getEnvInt("HISTORY_WINDOW", 10),
		MaxMessageChars:        getEnvInt("MAX_MESSAGE_CHARS", 5000),
		Timezone:               getEnv("TIMEZONE", "Europe/Paris"),
		RateLimitMax:           getEnvInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow:        time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		RateLimitSweep:         time.Duration(getEnvInt("RATE_LIMIT_SWEEP_SECONDS", 300)) * time.Second,
		ConfirmationTTL:        time.Duration(getEnvInt("CONFIRMATION_TTL_SECONDS", 300)) * time.Second,
		ConfirmationSweep:      time.Duration(getEnvInt("CONFIRMATION_SWEEP_SECONDS", 60)) * time.Second,
		PolicyFile:             getEnv("POLICY_FILE", ""),
		AuthMode:               getEnv("AUTH_MODE", "supabase"),
		StaticTokens:           parseTokens(getEnv("STATIC_TOKENS", "")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// parseTokens reads "token:user_id,token2:user_id2".
func parseTokens(raw string) map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		token, userID, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || userID == "" {
			continue
		}
		tokens[token] = userID
	}
	return tokens
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
