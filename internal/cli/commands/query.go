package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aquastack-labs/fishdoc/internal/cli/config"
	"github.com/spf13/cobra"

	// sqlite driver for history database queries.
	_ "modernc.org/sqlite"
)

// resolveHistoryPath returns the sqlite history path, or an error for the
// postgres backend.
func resolveHistoryPath(cfg *config.Config) (string, error) {
	h := cfg.GetHistoryConfig()
	if h.Driver != "sqlite" {
		return "", fmt.Errorf("query works on the sqlite history backend only (configured driver: %s)", h.Driver)
	}
	return h.Path, nil
}

// openHistoryDBReadOnly opens the history database in read-only mode.
func openHistoryDBReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?mode=ro")
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the consultation history database",
		Long: `Query the FishDoc history database directly.

Execute SQL queries against the consultation history to inspect
diagnoses, reported symptoms, rule firings, and traces. Supports
multiple output formats for scripting and integration.

When invoked without arguments, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  fishdoc query "SELECT disease_name, cf FROM consultations ORDER BY created_at DESC"

  # List available tables
  fishdoc query tables

  # Show schema for a table
  fishdoc query schema consultations

  # Output as JSON
  fishdoc query "SELECT * FROM rule_usage" --format json

  # Interactive mode
  fishdoc query`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	// Subcommands
	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContextWithoutKB(cmd)
	historyPath, err := resolveHistoryPath(cmdCtx.Cfg)
	if err != nil {
		return err
	}

	// Check if the history DB exists
	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		return fmt.Errorf("history database not found at %s (run 'fishdoc diagnose --save' first)", historyPath)
	}

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, historyPath, opts)
	}

	// Execute the query
	return executeAndRender(cmd.Context(), cmd, historyPath, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, cmd *cobra.Command, historyPath, sqlQuery, format string) error {
	db, err := openHistoryDBReadOnly(historyPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List all tables in the history database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutKB(cmd)
			historyPath, err := resolveHistoryPath(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			return listTables(cmd, historyPath, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutKB(cmd)
			historyPath, err := resolveHistoryPath(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			return showSchema(cmd, historyPath, args[0], opts.Format)
		},
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
