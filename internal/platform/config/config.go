// Package config loads environment-driven configuration for the dispatcher.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads a .env file and exports its variables into the process
// environment. Missing files are not fatal; callers may ignore the error and
// fall back to the real environment plus defaults. With no arguments ".env"
// is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the environment variable named by key, or fallback if it is
// unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by
// key, or fallback if it is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
