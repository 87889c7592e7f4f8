package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("CHAT_ID", "-100123")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CONFIG_FILE", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), cfg.ChatID)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.PollBackoffInterval)
	assert.Equal(t, 3, cfg.PollAlertAfter)
	assert.Equal(t, 15, cfg.PollHaltAfter)
	assert.Equal(t, "07:00", cfg.WeatherTime)
	assert.Equal(t, "09:00", cfg.BirthdayTime)
	assert.Equal(t, "Events", cfg.EventSheetName)
	assert.Equal(t, ":8080", cfg.HealthAddr)
}

func TestLoadRequiresToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "")

	_, err := Load()
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"CHAT_ID":          "abc",
		"POLL_INTERVAL":    "soon",
		"POLL_HALT_AFTER":  "2",
		"STORE_BACKEND":    "excel",
		"WEATHER_LATITUDE": "north",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadBackendRequirements(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORE_BACKEND", "sheets")
	t.Setenv("GOOGLE_SHEETS_CREDS", "")
	_, err = Load()
	assert.ErrorContains(t, err, "GOOGLE_SHEETS_CREDS")
}

func TestLoadFileOverlayLosesToEnv(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 45s\nweather_time: \"06:30\"\nPOLL_ALERT_AFTER: 4\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WEATHER_TIME", "08:15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.PollInterval)
	assert.Equal(t, 4, cfg.PollAlertAfter)
	assert.Equal(t, "08:15", cfg.WeatherTime)
}

func TestLoadEmptyValuesDisable(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("HEALTH_ADDR", "")
	t.Setenv("BIRTHDAY_TIME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.HealthAddr)
	assert.Empty(t, cfg.BirthdayTime)
	assert.Equal(t, "07:00", cfg.WeatherTime)
}
