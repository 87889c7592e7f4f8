package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// Store backends.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	ChatID        int64
	LogLevel      string
	Environment   string

	StoreBackend        string
	SheetsCredentials   string
	SpreadsheetID       string
	EventSheetName      string
	BirthdaySheetName   string
	DatabaseURL         string
	StoreTimeout        time.Duration
	SendRatePerSecond   float64
	PollInterval        time.Duration
	PollBackoffInterval time.Duration
	PollAlertAfter      int
	PollHaltAfter       int

	SchedulerTick time.Duration
	WeatherTime   string // HH:MM, empty disables the job
	BirthdayTime  string // HH:MM, empty disables the job

	WeatherLatitude  float64
	WeatherLongitude float64
	WeatherTimezone  string

	HealthAddr string // empty disables the HTTP health endpoint
}

// source resolves a key from the environment first, then the optional YAML file.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(s.file[strings.ToLower(key)])
}

func (s source) str(key, def string) string {
	if v := s.get(key); v != "" {
		return v
	}
	return def
}

// optional is str, except that a key set to "" in the environment yields "".
func (s source) optional(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) == "" {
		return ""
	}
	return s.str(key, def)
}

func (s source) duration(key string, def time.Duration) (time.Duration, error) {
	v := s.get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if d <= 0 {
		return 0, errors.Newf("invalid %s: must be positive", key)
	}
	return d, nil
}

func (s source) integer(key string, def int) (int, error) {
	v := s.get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func (s source) float(key string, def float64) (float64, error) {
	v := s.get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return f, nil
}

// readFile loads the flat YAML overlay named by CONFIG_FILE. Keys are the
// lower-cased environment variable names.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	out := map[string]string{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	lowered := make(map[string]string, len(out))
	for k, v := range out {
		lowered[strings.ToLower(k)] = v
	}
	return lowered, nil
}

// Load reads configuration from environment variables, a .env file and an
// optional YAML file. Environment variables win over the file.
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	file, err := readFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return nil, err
	}
	src := source{file: file}
	cfg := &AppConfig{}

	cfg.TelegramToken = src.get("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN is not set")
	}

	chatID := src.get("CHAT_ID")
	if chatID == "" {
		return nil, errors.New("CHAT_ID is not set")
	}
	cfg.ChatID, err = strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid CHAT_ID")
	}

	cfg.LogLevel = strings.ToLower(src.str("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(src.str("ENVIRONMENT", "development"))

	cfg.StoreBackend = strings.ToLower(src.str("STORE_BACKEND", BackendSheets))
	cfg.EventSheetName = src.str("GOOGLE_SHEET_NAME", "Events")
	cfg.BirthdaySheetName = src.str("GOOGLE_BIRTHDAY_SHEET_NAME", "Birthdays")
	switch cfg.StoreBackend {
	case BackendSheets:
		cfg.SheetsCredentials = src.get("GOOGLE_SHEETS_CREDS")
		cfg.SpreadsheetID = src.get("GOOGLE_SPREADSHEET_ID")
		if cfg.SheetsCredentials == "" || cfg.SpreadsheetID == "" {
			return nil, errors.New("GOOGLE_SHEETS_CREDS and GOOGLE_SPREADSHEET_ID are required for the sheets backend")
		}
	case BackendPostgres:
		cfg.DatabaseURL = src.get("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not set")
		}
	case BackendMemory:
	default:
		return nil, errors.Newf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.StoreTimeout, err = src.duration("STORE_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = src.duration("POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollBackoffInterval, err = src.duration("POLL_BACKOFF_INTERVAL", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PollAlertAfter, err = src.integer("POLL_ALERT_AFTER", 3); err != nil {
		return nil, err
	}
	if cfg.PollHaltAfter, err = src.integer("POLL_HALT_AFTER", 15); err != nil {
		return nil, err
	}
	if cfg.PollAlertAfter < 1 || cfg.PollHaltAfter <= cfg.PollAlertAfter {
		return nil, errors.Newf("POLL_HALT_AFTER (%d) must be greater than POLL_ALERT_AFTER (%d) >= 1", cfg.PollHaltAfter, cfg.PollAlertAfter)
	}
	if cfg.SendRatePerSecond, err = src.float("SEND_RATE_PER_SEC", 1); err != nil {
		return nil, err
	}

	if cfg.SchedulerTick, err = src.duration("SCHEDULER_TICK", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.WeatherTime = src.optional("WEATHER_TIME", "07:00")
	cfg.BirthdayTime = src.optional("BIRTHDAY_TIME", "09:00")

	if cfg.WeatherLatitude, err = src.float("WEATHER_LATITUDE", 45.25); err != nil {
		return nil, err
	}
	if cfg.WeatherLongitude, err = src.float("WEATHER_LONGITUDE", 19.83); err != nil {
		return nil, err
	}
	cfg.WeatherTimezone = src.str("WEATHER_TIMEZONE", "Europe/Berlin")

	cfg.HealthAddr = src.optional("HEALTH_ADDR", ":8080")

	return cfg, nil
}
