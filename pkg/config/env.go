package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the given .env files. When no
// paths are provided the default `.env` in the working directory is used.
// Later files take precedence over earlier ones, and file values override
// variables already present in the environment.
func LoadEnv(paths ...string) error {
	if err := godotenv.Overload(paths...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics if any file cannot be loaded.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("Failed to load required env files: %v", err))
	}
}
