// Package config resolves runtime settings from defaults, an optional TOML or
// YAML file, and SALAHPLAN_ environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SALAHPLAN_"

type RuntimeConfig struct {
	DesktopNotifications bool
	SchedulerBuffer      int
	PollInterval         time.Duration
	AutoCompleteInterval time.Duration

	StorageDriver string
	StoragePath   string
	PostgresDSN   string

	ListenAddr     string
	AllowedOrigins []string

	PrayerAPIBaseURL string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	HTTPTimeout      time.Duration

	LogLevel string
	LogFile  string
}

// DefaultDataDir is where state and logs live unless configured otherwise.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "salahplan")
	}
	return ".salahplan"
}

func DefaultRuntimeConfig() RuntimeConfig {
	dir := DefaultDataDir()
	return RuntimeConfig{
		DesktopNotifications: false,
		SchedulerBuffer:      64,
		PollInterval:         time.Minute,
		AutoCompleteInterval: 5 * time.Minute,
		StorageDriver:        "sqlite",
		StoragePath:          filepath.Join(dir, "salahplan.db"),
		ListenAddr:           "127.0.0.1:8787",
		AllowedOrigins:       []string{"http://localhost:5173"},
		GeminiModel:          "gemini-2.5-flash",
		HTTPTimeout:          10 * time.Second,
		LogLevel:             "info",
		LogFile:              filepath.Join(dir, "salahplan.log"),
	}
}

// fileConfig mirrors RuntimeConfig with optional fields so an absent key
// keeps the layer below it.
type fileConfig struct {
	DesktopNotifications *bool  `toml:"desktop_notifications" yaml:"desktop_notifications"`
	SchedulerBuffer      *int   `toml:"scheduler_buffer" yaml:"scheduler_buffer"`
	PollInterval         string `toml:"poll_interval" yaml:"poll_interval"`
	AutoCompleteInterval string `toml:"auto_complete_interval" yaml:"auto_complete_interval"`
	HTTPTimeout          string `toml:"http_timeout" yaml:"http_timeout"`

	Storage struct {
		Driver string `toml:"driver" yaml:"driver"`
		Path   string `toml:"path" yaml:"path"`
		DSN    string `toml:"dsn" yaml:"dsn"`
	} `toml:"storage" yaml:"storage"`
	API struct {
		Listen         string   `toml:"listen" yaml:"listen"`
		AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
	} `toml:"api" yaml:"api"`
	Prayer struct {
		BaseURL string `toml:"base_url" yaml:"base_url"`
	} `toml:"prayer" yaml:"prayer"`
	Gemini struct {
		APIKey  string `toml:"api_key" yaml:"api_key"`
		Model   string `toml:"model" yaml:"model"`
		BaseURL string `toml:"base_url" yaml:"base_url"`
	} `toml:"gemini" yaml:"gemini"`
	Log struct {
		Level string  `toml:"level" yaml:"level"`
		File  *string `toml:"file" yaml:"file"`
	} `toml:"log" yaml:"log"`
}

// RuntimeConfigFromFile overlays the file at path onto base. A missing file
// leaves base untouched. The format follows the extension: .toml, .yaml or
// .yml.
func RuntimeConfigFromFile(base RuntimeConfig, path string) (RuntimeConfig, error) {
	if strings.TrimSpace(path) == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return base, fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return base, fmt.Errorf("parse config: %w", err)
	}
	return fc.apply(base)
}

func (fc fileConfig) apply(base RuntimeConfig) (RuntimeConfig, error) {
	cfg := base
	if fc.DesktopNotifications != nil {
		cfg.DesktopNotifications = *fc.DesktopNotifications
	}
	if fc.SchedulerBuffer != nil && *fc.SchedulerBuffer > 0 {
		cfg.SchedulerBuffer = *fc.SchedulerBuffer
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.PollInterval, &cfg.PollInterval},
		{fc.AutoCompleteInterval, &cfg.AutoCompleteInterval},
		{fc.HTTPTimeout, &cfg.HTTPTimeout},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil || v <= 0 {
			return base, fmt.Errorf("config: invalid duration %q", d.raw)
		}
		*d.dst = v
	}
	setString(&cfg.StorageDriver, fc.Storage.Driver)
	setString(&cfg.StoragePath, fc.Storage.Path)
	setString(&cfg.PostgresDSN, fc.Storage.DSN)
	setString(&cfg.ListenAddr, fc.API.Listen)
	if len(fc.API.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.API.AllowedOrigins
	}
	setString(&cfg.PrayerAPIBaseURL, fc.Prayer.BaseURL)
	setString(&cfg.GeminiAPIKey, fc.Gemini.APIKey)
	setString(&cfg.GeminiModel, fc.Gemini.Model)
	setString(&cfg.GeminiBaseURL, fc.Gemini.BaseURL)
	setString(&cfg.LogLevel, fc.Log.Level)
	if fc.Log.File != nil {
		cfg.LogFile = strings.TrimSpace(*fc.Log.File)
	}
	return cfg, nil
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvBool(envPrefix + "DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvInt(envPrefix + "SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvDuration(envPrefix + "POLL_INTERVAL"); ok {
		cfg.PollInterval = v
	}
	if v, ok := getEnvDuration(envPrefix + "AUTO_COMPLETE_INTERVAL"); ok {
		cfg.AutoCompleteInterval = v
	}
	if v, ok := getEnvDuration(envPrefix + "HTTP_TIMEOUT"); ok {
		cfg.HTTPTimeout = v
	}
	setString(&cfg.StorageDriver, os.Getenv(envPrefix+"STORAGE_DRIVER"))
	setString(&cfg.StoragePath, os.Getenv(envPrefix+"STORAGE_PATH"))
	setString(&cfg.PostgresDSN, os.Getenv(envPrefix+"POSTGRES_DSN"))
	setString(&cfg.ListenAddr, os.Getenv(envPrefix+"LISTEN_ADDR"))
	if raw := strings.TrimSpace(os.Getenv(envPrefix + "ALLOWED_ORIGINS")); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	setString(&cfg.PrayerAPIBaseURL, os.Getenv(envPrefix+"PRAYER_API_URL"))
	setString(&cfg.GeminiAPIKey, os.Getenv(envPrefix+"GEMINI_API_KEY"))
	setString(&cfg.GeminiModel, os.Getenv(envPrefix+"GEMINI_MODEL"))
	setString(&cfg.GeminiBaseURL, os.Getenv(envPrefix+"GEMINI_BASE_URL"))
	setString(&cfg.LogLevel, os.Getenv(envPrefix+"LOG_LEVEL"))
	if v, ok := os.LookupEnv(envPrefix + "LOG_FILE"); ok {
		cfg.LogFile = strings.TrimSpace(v)
	}
	return cfg
}

// Load layers defaults, the file at path and the environment.
func Load(path string) (RuntimeConfig, error) {
	cfg, err := RuntimeConfigFromFile(DefaultRuntimeConfig(), path)
	if err != nil {
		return RuntimeConfig{}, err
	}
	return RuntimeConfigFromEnv(cfg), nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
