package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"timebudget/internal/clock"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	// DigestTime is the HH:MM of the daily plan digest; empty disables it.
	DigestTime      string
	DefaultDayStart string
	DefaultDayEnd   string
	LogLevel        string
	LogFile         string
	LogMaxSizeMB    int

	// invalid holds variables that were set but could not be parsed.
	invalid []string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	logMaxSizeMB, logMaxSizeErr := getEnvInt("LOG_MAX_SIZE_MB", 10)

	cfg := Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:     getEnv("DATABASE_URL", "timebudget.db"),
		DigestTime:      getEnvAllowEmpty("DIGEST_TIME", "07:00"),
		DefaultDayStart: getEnv("DEFAULT_DAY_START", "06:00"),
		DefaultDayEnd:   getEnv("DEFAULT_DAY_END", "23:00"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         strings.TrimSpace(os.Getenv("LOG_FILE")),
		LogMaxSizeMB:    logMaxSizeMB,
	}
	if logMaxSizeErr != nil {
		cfg.invalid = append(cfg.invalid, logMaxSizeErr.Error())
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks time fields and the default day window, reporting every problem at once.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.invalid...)

	if c.DigestTime != "" {
		if _, err := clock.Parse(c.DigestTime); err != nil {
			problems = append(problems, fmt.Sprintf("DIGEST_TIME: %v", err))
		}
	}

	start, startErr := clock.Parse(c.DefaultDayStart)
	if startErr != nil {
		problems = append(problems, fmt.Sprintf("DEFAULT_DAY_START: %v", startErr))
	}
	end, endErr := clock.Parse(c.DefaultDayEnd)
	if endErr != nil {
		problems = append(problems, fmt.Sprintf("DEFAULT_DAY_END: %v", endErr))
	}
	if startErr == nil && endErr == nil && start >= end {
		problems = append(problems, fmt.Sprintf("default day window %s–%s: start must be before end", c.DefaultDayStart, c.DefaultDayEnd))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q: must be debug, info, warn or error", c.LogLevel))
	}

	if c.LogMaxSizeMB <= 0 {
		problems = append(problems, fmt.Sprintf("LOG_MAX_SIZE_MB %d: must be positive", c.LogMaxSizeMB))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an unset variable from one explicitly set to "".
func getEnvAllowEmpty(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s %q: must be an integer", key, value)
	}
	return i, nil
}
