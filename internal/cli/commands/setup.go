package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aquastack-labs/fishdoc/internal/cli/config"
	"github.com/aquastack-labs/fishdoc/internal/cli/output"
	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	KB       *kb.Store
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the knowledge base and
// inference engine loaded.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	store, err := kb.Open(cfg.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	eng := engine.New(engine.Config{
		Threshold: cfg.Threshold,
		Logger:    logger,
	})

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		KB:       store,
		Engine:   eng,
		Renderer: r,
	}, nil
}

// NewCommandContextWithoutKB creates a CommandContext without loading the
// knowledge base. Useful for commands that only touch the history store.
func NewCommandContextWithoutKB(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	databaseDir := getEnvOrDefault("FISHDOC_DATABASE_DIR", config.DefaultDatabaseDir)
	reportsDir := getEnvOrDefault("FISHDOC_REPORTS_DIR", config.DefaultReportsDir)
	threshold := config.DefaultThreshold
	if v := os.Getenv("FISHDOC_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = f
		}
	}
	verbose := os.Getenv("FISHDOC_VERBOSE") == "true"
	outputFormat := os.Getenv("FISHDOC_OUTPUT")

	return &config.Config{
		DatabaseDir:  databaseDir,
		ReportsDir:   reportsDir,
		Threshold:    threshold,
		Verbose:      verbose,
		OutputFormat: outputFormat,
		History: &config.HistoryConfig{
			Driver: getEnvOrDefault("FISHDOC_HISTORY_DRIVER", config.DefaultHistoryDriver),
			Path:   getEnvOrDefault("FISHDOC_HISTORY_PATH", config.DefaultHistoryPath),
			DSN:    os.Getenv("FISHDOC_HISTORY_DSN"),
		},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openHistory opens the consultation history store per config and runs
// migrations. The returned cleanup must be called (typically via defer).
func openHistory(cfg *config.Config) (state.Store, func(), error) {
	h := cfg.GetHistoryConfig()

	var store state.Store
	var dsn string
	switch h.Driver {
	case "postgres":
		store = state.NewPostgresStore()
		dsn = h.DSN
	default:
		if dir := filepath.Dir(h.Path); h.Path != ":memory:" && dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		store = state.NewSQLiteStore()
		dsn = h.Path
	}

	if err := store.Open(dsn); err != nil {
		return nil, nil, fmt.Errorf("failed to open history store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to migrate history store: %w", err)
	}

	cleanup := func() { _ = store.Close() }
	return store, cleanup, nil
}
