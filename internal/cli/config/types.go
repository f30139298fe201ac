// Package config provides configuration management for the FishDoc CLI.
//
// Configuration is layered: defaults, then fishdoc.yaml, then FISHDOC_*
// environment variables, then explicitly set CLI flags.
package config

// UIConfig holds configuration for the web UI server.
type UIConfig struct {
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	Watch         bool   `koanf:"watch"`
	SessionSecret string `koanf:"session_secret"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:     8712,
		AutoOpen: true,
		Watch:    true,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = 8712
	}
	return ui
}

// HistoryConfig holds configuration for the consultation history store.
type HistoryConfig struct {
	Driver string `koanf:"driver"` // "sqlite" or "postgres"
	Path   string `koanf:"path"`   // sqlite database file
	DSN    string `koanf:"dsn"`    // postgres connection string
}

// Config holds all CLI configuration options.
type Config struct {
	DatabaseDir  string         `koanf:"database_dir"`
	ReportsDir   string         `koanf:"reports_dir"`
	Threshold    float64        `koanf:"threshold"`
	Species      string         `koanf:"species"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	History      *HistoryConfig `koanf:"history"`
	UI           *UIConfig      `koanf:"ui"`
	ProjectRoot  string         `koanf:"-"`
}

// GetHistoryConfig returns the history config with defaults applied.
func (c *Config) GetHistoryConfig() *HistoryConfig {
	if c.History == nil {
		return &HistoryConfig{Driver: DefaultHistoryDriver, Path: DefaultHistoryPath}
	}
	h := c.History
	if h.Driver == "" {
		h.Driver = DefaultHistoryDriver
	}
	if h.Driver == "sqlite" && h.Path == "" {
		h.Path = DefaultHistoryPath
	}
	return h
}

// Default configuration values.
const (
	DefaultDatabaseDir   = "database"
	DefaultReportsDir    = "reports"
	DefaultHistoryDriver = "sqlite"
	DefaultHistoryPath   = ".fishdoc/history.db"
	DefaultThreshold     = 0.6
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
