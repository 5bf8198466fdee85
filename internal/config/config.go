package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds everything bankctl reads from the environment.
type Config struct {
	APIBaseURL  string
	SessionFile string
	SessionKey  string
	HTTPTimeout time.Duration
}

func Load() Config {
	return Config{
		APIBaseURL:  getEnv("BANKCTL_API_BASE_URL", "http://localhost:8080"),
		SessionFile: getEnv("BANKCTL_SESSION_FILE", defaultSessionFile()),
		SessionKey:  getEnv("BANKCTL_SESSION_KEY", ""),
		HTTPTimeout: getDuration("BANKCTL_HTTP_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
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

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".bankctl", "session.json")
	}
	return filepath.Join(home, ".bankctl", "session.json")
}
