// Package config provides configuration management for the honeypot.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Defaults.
const (
	DefaultPort                       = 8080
	DefaultModel                      = "gemini-2.0-flash"
	DefaultReportMinTurns             = 8
	DefaultReportMaxTurns             = 10
	DefaultSessionIdleSeconds         = 3600
	DefaultCleanupIntervalSeconds     = 300
	DefaultCollaboratorTimeoutSeconds = 8
	DefaultCallbackAttempts           = 3
	DefaultCallbackRetryDelayMs       = 2000
	DefaultCallbackTimeoutSeconds     = 5
	DefaultReplyMinLength             = 12
	DefaultReplyMaxLength             = 240
	DefaultHistoryWindow              = 6
	DefaultHistoryTokenBudget         = 1200
	DefaultAnalysisConcurrency        = 8
	DefaultArchiveMaxConns            = 4
	DefaultLogLevel                   = "info"
)

const (
	dataDirName      = ".honeypot"
	settingsFileName = "settings.json"
)

// Config holds all honeypot settings. JSON keys double as environment variable names.
type Config struct {
	APIKey         string `json:"HONEYPOT_API_KEY"`
	GeminiAPIKey   string `json:"GEMINI_API_KEY"`
	Model          string `json:"HONEYPOT_MODEL"`
	CallbackURL    string `json:"HONEYPOT_CALLBACK_URL"`
	CallbackAPIKey string `json:"HONEYPOT_CALLBACK_API_KEY"`
	// ArchiveDSN is empty to disable the archive, a postgres:// URL or a SQLite path.
	ArchiveDSN string `json:"HONEYPOT_ARCHIVE_DSN"`
	// CatalogPath optionally replaces the embedded fallback catalog.
	CatalogPath string `json:"HONEYPOT_CATALOG_PATH"`
	LogLevel    string `json:"HONEYPOT_LOG_LEVEL"`

	Port                       int `json:"HONEYPOT_PORT"`
	ReportMinTurns             int `json:"HONEYPOT_REPORT_MIN_TURNS"`
	ReportMaxTurns             int `json:"HONEYPOT_REPORT_MAX_TURNS"`
	SessionIdleSeconds         int `json:"HONEYPOT_SESSION_IDLE_SECONDS"`
	CleanupIntervalSeconds     int `json:"HONEYPOT_CLEANUP_INTERVAL_SECONDS"`
	CollaboratorTimeoutSeconds int `json:"HONEYPOT_COLLABORATOR_TIMEOUT_SECONDS"`
	CallbackAttempts           int `json:"HONEYPOT_CALLBACK_ATTEMPTS"`
	CallbackRetryDelayMs       int `json:"HONEYPOT_CALLBACK_RETRY_DELAY_MS"`
	CallbackTimeoutSeconds     int `json:"HONEYPOT_CALLBACK_TIMEOUT_SECONDS"`
	ReplyMinLength             int `json:"HONEYPOT_REPLY_MIN_LENGTH"`
	ReplyMaxLength             int `json:"HONEYPOT_REPLY_MAX_LENGTH"`
	HistoryWindow              int `json:"HONEYPOT_HISTORY_WINDOW"`
	HistoryTokenBudget         int `json:"HONEYPOT_HISTORY_TOKEN_BUDGET"`
	AnalysisConcurrency        int `json:"HONEYPOT_ANALYSIS_CONCURRENCY"`
	ArchiveMaxConns            int `json:"HONEYPOT_ARCHIVE_MAX_CONNS"`
}

var (
	global     *Config
	globalOnce sync.Once
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Model:                      DefaultModel,
		LogLevel:                   DefaultLogLevel,
		Port:                       DefaultPort,
		ReportMinTurns:             DefaultReportMinTurns,
		ReportMaxTurns:             DefaultReportMaxTurns,
		SessionIdleSeconds:         DefaultSessionIdleSeconds,
		CleanupIntervalSeconds:     DefaultCleanupIntervalSeconds,
		CollaboratorTimeoutSeconds: DefaultCollaboratorTimeoutSeconds,
		CallbackAttempts:           DefaultCallbackAttempts,
		CallbackRetryDelayMs:       DefaultCallbackRetryDelayMs,
		CallbackTimeoutSeconds:     DefaultCallbackTimeoutSeconds,
		ReplyMinLength:             DefaultReplyMinLength,
		ReplyMaxLength:             DefaultReplyMaxLength,
		HistoryWindow:              DefaultHistoryWindow,
		HistoryTokenBudget:         DefaultHistoryTokenBudget,
		AnalysisConcurrency:        DefaultAnalysisConcurrency,
		ArchiveMaxConns:            DefaultArchiveMaxConns,
	}
}

// DataDir returns the data directory path.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFileName)
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and the default settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Load reads the settings file over the defaults and then applies environment overrides.
// A missing or unparseable settings file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	switch {
	case err == nil:
		parsed := Default()
		if err := json.Unmarshal(data, parsed); err != nil {
			log.Warn().Err(err).Str("path", SettingsPath()).Msg("Invalid settings file, using defaults")
		} else {
			cfg = parsed
		}
	case !os.IsNotExist(err):
		log.Warn().Err(err).Str("path", SettingsPath()).Msg("Failed to read settings file, using defaults")
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		global = cfg
	})
	return global
}

// GetPort returns the listen port, preferring a valid HONEYPOT_PORT from the environment.
func GetPort() int {
	if v := os.Getenv("HONEYPOT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			return port
		}
	}
	return Get().Port
}

func (c *Config) stringFields() map[string]*string {
	return map[string]*string{
		"HONEYPOT_API_KEY":          &c.APIKey,
		"GEMINI_API_KEY":            &c.GeminiAPIKey,
		"HONEYPOT_MODEL":            &c.Model,
		"HONEYPOT_CALLBACK_URL":     &c.CallbackURL,
		"HONEYPOT_CALLBACK_API_KEY": &c.CallbackAPIKey,
		"HONEYPOT_ARCHIVE_DSN":      &c.ArchiveDSN,
		"HONEYPOT_CATALOG_PATH":     &c.CatalogPath,
		"HONEYPOT_LOG_LEVEL":        &c.LogLevel,
	}
}

func (c *Config) intFields() map[string]*int {
	return map[string]*int{
		"HONEYPOT_PORT":                         &c.Port,
		"HONEYPOT_REPORT_MIN_TURNS":             &c.ReportMinTurns,
		"HONEYPOT_REPORT_MAX_TURNS":             &c.ReportMaxTurns,
		"HONEYPOT_SESSION_IDLE_SECONDS":         &c.SessionIdleSeconds,
		"HONEYPOT_CLEANUP_INTERVAL_SECONDS":     &c.CleanupIntervalSeconds,
		"HONEYPOT_COLLABORATOR_TIMEOUT_SECONDS": &c.CollaboratorTimeoutSeconds,
		"HONEYPOT_CALLBACK_ATTEMPTS":            &c.CallbackAttempts,
		"HONEYPOT_CALLBACK_RETRY_DELAY_MS":      &c.CallbackRetryDelayMs,
		"HONEYPOT_CALLBACK_TIMEOUT_SECONDS":     &c.CallbackTimeoutSeconds,
		"HONEYPOT_REPLY_MIN_LENGTH":             &c.ReplyMinLength,
		"HONEYPOT_REPLY_MAX_LENGTH":             &c.ReplyMaxLength,
		"HONEYPOT_HISTORY_WINDOW":               &c.HistoryWindow,
		"HONEYPOT_HISTORY_TOKEN_BUDGET":         &c.HistoryTokenBudget,
		"HONEYPOT_ANALYSIS_CONCURRENCY":         &c.AnalysisConcurrency,
		"HONEYPOT_ARCHIVE_MAX_CONNS":            &c.ArchiveMaxConns,
	}
}

// applyEnv overrides settings with non-empty environment variables. Integers that do not
// parse or are not positive are ignored.
func (c *Config) applyEnv() {
	for key, field := range c.stringFields() {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
	for key, field := range c.intFields() {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Warn().Str("key", key).Str("value", v).Msg("Ignoring invalid integer setting")
			continue
		}
		*field = n
	}
}

// normalize replaces non-positive integers with defaults and keeps the report ceiling
// at or above the floor.
func (c *Config) normalize() {
	defaults := Default().intFields()
	for key, field := range c.intFields() {
		if *field <= 0 {
			*field = *defaults[key]
		}
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ReportMaxTurns < c.ReportMinTurns {
		c.ReportMaxTurns = c.ReportMinTurns
	}
}

// SessionIdle is how long a session may stay idle before it is swept.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleSeconds) * time.Second
}

// CleanupInterval is the idle sweep period.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// CollaboratorTimeout bounds each classifier, extractor and generator call.
func (c *Config) CollaboratorTimeout() time.Duration {
	return time.Duration(c.CollaboratorTimeoutSeconds) * time.Second
}

// CallbackRetryDelay is the wait between report delivery attempts.
func (c *Config) CallbackRetryDelay() time.Duration {
	return time.Duration(c.CallbackRetryDelayMs) * time.Millisecond
}

// CallbackTimeout bounds one report delivery attempt.
func (c *Config) CallbackTimeout() time.Duration {
	return time.Duration(c.CallbackTimeoutSeconds) * time.Second
}
