package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig returns host, port, user, password, database name
func DatabaseConfig() (string, string, string, string, string) {
	host := GetEnv("DB_HOST", "localhost")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "postgres")
	password := GetEnv("DB_PASS", "")
	databaseName := GetEnv("DB_NAME", "gatherly")
	return host, port, user, password, databaseName
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "redis")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// SMTPConfig returns host, port, user, password, from address.
// An empty host means mail goes to the log instead of the wire.
func SMTPConfig() (string, string, string, string, string) {
	host := GetEnv("SMTP_HOST", "")
	port := GetEnv("SMTP_PORT", "587")
	user := GetEnv("SMTP_USER", "")
	password := GetEnv("SMTP_PASS", "")
	from := GetEnv("MAIL_FROM", "")
	if from == "" {
		if user != "" {
			from = user
		} else {
			from = "no-reply@gatherly.local"
		}
	}
	return host, port, user, password, from
}

// JWTSecret returns the signing secret for auth tokens.
func JWTSecret() string {
	return GetEnv("JWT_SECRET", "")
}

// ServerPort returns the HTTP listen port.
func ServerPort() string {
	return GetEnv("PORT", "8080")
}

// ReminderWorkerConfig returns the tick interval and per-tick batch bound.
func ReminderWorkerConfig() (time.Duration, int) {
	interval := GetDurationEnv("REMINDER_INTERVAL", time.Minute)
	batch := GetIntEnv("REMINDER_BATCH", 50)
	return interval, batch
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment value, falling back to the
// default when unset or unparsable.
func GetIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetDurationEnv retrieves a duration environment value ("90s", "5m"),
// falling back to the default when unset or unparsable.
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
