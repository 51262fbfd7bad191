package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Model serving
	ServingEndpoint string
	DatabricksHost  string
	DatabricksToken string
	MaxTokens       int
	RequestTimeout  time.Duration

	// Sessions
	RedisURL      string
	SessionSecret string
	SessionTTL    time.Duration

	// Chat
	QuestionsFile     string
	ChatRatePerMinute int
	ChatRateBurst     int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		ServingEndpoint:   mustGetEnv("SERVING_ENDPOINT"),
		DatabricksHost:    mustGetEnv("DATABRICKS_HOST"),
		DatabricksToken:   getEnvOrDefault("DATABRICKS_TOKEN", ""),
		MaxTokens:         getEnvAsIntOrDefault("MAX_TOKENS", 400),
		RequestTimeout:    time.Duration(getEnvAsIntOrDefault("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		RedisURL:          getEnvOrDefault("REDIS_URL", ""),
		SessionSecret:     mustGetEnv("SESSION_SECRET"),
		SessionTTL:        time.Duration(getEnvAsIntOrDefault("SESSION_TTL_MINUTES", 720)) * time.Minute,
		QuestionsFile:     getEnvOrDefault("QUESTIONS_FILE", ""),
		ChatRatePerMinute: getEnvAsIntOrDefault("CHAT_RATE_PER_MINUTE", 30),
		ChatRateBurst:     getEnvAsIntOrDefault("CHAT_RATE_BURST", 5),
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 400
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
