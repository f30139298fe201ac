package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DatabaseDir == "" {
		return fmt.Errorf("database_dir is required")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0, got %g", c.Threshold)
	}
	h := c.GetHistoryConfig()
	switch h.Driver {
	case "sqlite":
		if h.Path == "" {
			return fmt.Errorf("history.path is required for the sqlite driver")
		}
	case "postgres":
		if h.DSN == "" {
			return fmt.Errorf("history.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported history driver: %s (expected sqlite or postgres)", h.Driver)
	}

	// Directory existence is validated separately so help commands work
	// without a knowledge base on disk
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.DatabaseDir); os.IsNotExist(err) {
		return fmt.Errorf("knowledge base directory does not exist: %s\nHint: Run 'fishdoc init' or use --database-dir to specify a different path", c.DatabaseDir)
	}
	return nil
}
