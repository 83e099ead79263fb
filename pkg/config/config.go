package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionID is the reserved session whose transcript is mirrored
// to the history file.
const DefaultSessionID = "default_session"

// DefaultSystemPrompt is the persona preamble sent with every model call.
const DefaultSystemPrompt = "You are Captain Jack Sparrow. Answer every question with wit and iconic dialogues."

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Model provider configuration
	Model struct {
		Provider    string
		Name        string
		Temperature float64
		MaxTokens   int
		Timeout     time.Duration
	}

	// Chat configuration
	Chat struct {
		SystemPrompt     string
		DefaultSessionID string
		HistoryFile      string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
		File   string
	}

	// Tracing configuration
	Tracing struct {
		Enabled bool
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8080")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
		instance.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+instance.Server.Port)

		// Model config
		instance.Model.Provider = getEnvString("MODEL_PROVIDER", "")
		instance.Model.Name = getEnvString("MODEL_NAME", "claude-sonnet-4-20250514")
		instance.Model.Temperature = getEnvFloat("MODEL_TEMPERATURE", 0.7)
		instance.Model.MaxTokens = getEnvInt("MODEL_MAX_TOKENS", 1024)
		instance.Model.Timeout = getEnvDuration("MODEL_TIMEOUT", 30*time.Second)

		// Chat config
		instance.Chat.SystemPrompt = getEnvString("SYSTEM_PROMPT", DefaultSystemPrompt)
		instance.Chat.DefaultSessionID = getEnvString("DEFAULT_SESSION_ID", DefaultSessionID)
		instance.Chat.HistoryFile = getEnvString("HISTORY_FILE", "chat_history.json")

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")
		instance.Logging.File = getEnvString("LOG_FILE", "chatbot_api.log")

		// Tracing config
		instance.Tracing.Enabled = getEnvBool("TRACING_ENABLED", false)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
