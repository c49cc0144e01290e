package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret signs tokens when JWT_SECRET is unset.
const DefaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	GoogleClientIDs   []string
	FCMServiceAccount string
	LogLevel          string
	TrialDays         int
	UploadDir         string
	SeedFile          string
}

// Load reads the environment, after merging in a .env file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "kpigo.db"),
		JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
		Port:              getEnv("PORT", "8080"),
		GoogleClientIDs:   splitList(getEnv("GOOGLE_CLIENT_IDS", "")),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		TrialDays:         getEnvInt("TRIAL_DAYS", 30),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		SeedFile:          getEnv("SEED_FILE", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
