package shared

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory when present.
// A missing file is not an error; explicit environment always wins.
func LoadEnv() {
	_ = godotenv.Load()
}

// Getenv returns the value of key, or fallback when unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
