package helper

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory if one exists.
func LoadEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnv returns the value of key or an empty string
func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

// GetEnvString returns the value of key or defaultValue
func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	return value
}

// GetEnvFloat returns the value of key parsed as float64 or defaultValue if unset
func GetEnvFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid float for %s: %q", key, value)
	}
	return parsed, nil
}

// GetEnvInt returns the value of key parsed as int or defaultValue if unset
func GetEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid integer for %s: %q", key, value)
	}
	return parsed, nil
}

// GetEnvBool accepts the literal values "true" and "false"
func GetEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	if value != "true" && value != "false" {
		return defaultValue, fmt.Errorf("invalid bool for %s: %q", key, value)
	}
	return value == "true", nil
}
