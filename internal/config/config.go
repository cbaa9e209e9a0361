package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"svgtranslate/internal/download"
)

// Config holds tool-wide settings sourced from the environment.
type Config struct {
	WorkerCount     int
	UserAgent       string
	DownloadBaseURL string
	HTTPTimeout     time.Duration
	MemoryPath      string
	CaseSensitive   bool
}

// Load reads configuration from a .env file (when present) and the process
// environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		WorkerCount:     getEnvInt("WORKER_COUNT", 8),
		UserAgent:       getEnv("USER_AGENT", download.DefaultUserAgent),
		DownloadBaseURL: getEnv("DOWNLOAD_BASE_URL", download.DefaultBaseURL),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		MemoryPath:      getEnv("TRANSLATION_MEMORY", ""),
		CaseSensitive:   getEnvBool("CASE_SENSITIVE", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
