// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Storage settings
	DataDir string

	// Generation backend settings
	LLMProvider     string
	OllamaURL       string
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	DefaultModel    string
	GenerateTimeout time.Duration

	// Document index settings
	IndexURL  string
	IndexTopK int

	// NATS settings
	NATSURL     string
	NATSToken   string
	NATSEnabled bool

	// JWT settings
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from the environment, with a .env file applied
// first when one is present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Storage
		DataDir: getEnv("DATA_DIR", "./data"),

		// Generation backend
		LLMProvider:     getEnv("LLM_PROVIDER", "ollama"),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultModel:    getEnv("DEFAULT_MODEL", "gemma3"),
		GenerateTimeout: getDurationEnv("GENERATE_TIMEOUT", 60*time.Second),

		// Document index
		IndexURL:  getEnv("INDEX_URL", ""),
		IndexTopK: getIntEnv("INDEX_TOP_K", 3),

		// NATS
		NATSURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		NATSToken:   getEnv("NATS_TOKEN", ""),
		NATSEnabled: getBoolEnv("NATS_ENABLED", false),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
