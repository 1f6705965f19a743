package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "DATABASE_URL", "DEFAULT_DAY_START", "DEFAULT_DAY_END",
		"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DIGEST_TIME", "")
	require.NoError(t, os.Unsetenv("DIGEST_TIME"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, "07:00", cfg.DigestTime)
	assert.Equal(t, "timebudget.db", cfg.DatabaseURL)
	assert.Equal(t, "06:00", cfg.DefaultDayStart)
	assert.Equal(t, "23:00", cfg.DefaultDayEnd)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.LogMaxSizeMB)
	assert.Empty(t, cfg.LogFile)
}

func TestLoad_RequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
}

func TestLoad_DigestTimeCanBeDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DIGEST_TIME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DigestTime)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DATABASE_URL", "/tmp/x/planner.db")
	t.Setenv("DIGEST_TIME", "08:30")
	t.Setenv("DEFAULT_DAY_START", "07:00")
	t.Setenv("DEFAULT_DAY_END", "22:00")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_MAX_SIZE_MB", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x/planner.db", cfg.DatabaseURL)
	assert.Equal(t, "08:30", cfg.DigestTime)
	assert.Equal(t, "07:00", cfg.DefaultDayStart)
	assert.Equal(t, "22:00", cfg.DefaultDayEnd)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 25, cfg.LogMaxSizeMB)
}

func TestLoad_RejectsMalformedInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("LOG_MAX_SIZE_MB", "ten")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `LOG_MAX_SIZE_MB "ten": must be an integer`)
	assert.Contains(t, err.Error(), "LOG_LEVEL", "reported together with other problems")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Config{
		DigestTime:      "25:00",
		DefaultDayStart: "22:00",
		DefaultDayEnd:   "07:00",
		LogLevel:        "verbose",
		LogMaxSizeMB:    0,
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "DIGEST_TIME")
	assert.Contains(t, msg, "start must be before end")
	assert.Contains(t, msg, "LOG_LEVEL")
	assert.Contains(t, msg, "LOG_MAX_SIZE_MB")
}

func TestValidate_BadDayStart(t *testing.T) {
	cfg := Config{DefaultDayStart: "6am", DefaultDayEnd: "23:00", LogLevel: "info", LogMaxSizeMB: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_DAY_START")
	assert.NotContains(t, err.Error(), "start must be before end")
}
