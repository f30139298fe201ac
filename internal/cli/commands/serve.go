package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/aquastack-labs/fishdoc/internal/cli/config"
	"github.com/aquastack-labs/fishdoc/internal/ui"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the FishDoc web UI",
		Long: `Start a local web server providing the diagnosis UI.

The UI provides:
- Guided diagnosis with species filter and symptom checklist
- Knowledge acquisition (rule add/edit/delete)
- Consultation history with reports and CSV export
- Knowledge base explorer with search and highlighting`,
		Example: `  # Start UI on default port
  fishdoc serve

  # Start on custom port
  fishdoc serve --port 3000

  # Start without auto-opening browser
  fishdoc serve --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8712)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch the knowledge base for changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg

	// Get UI config with defaults
	uiCfg := cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := uiCfg.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	// Open the history store for saving consultations from the UI
	store, cleanup, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	serverCfg := ui.Config{
		KB:            cmdCtx.KB,
		Engine:        cmdCtx.Engine,
		Store:         store,
		Port:          port,
		Watch:         watch,
		SessionSecret: sessionSecret(uiCfg),
		Logger:        cmdCtx.Logger,
		ReportsDir:    cfg.ReportsDir,
	}

	server := ui.NewServer(serverCfg)

	// Open browser if configured
	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	cmdCtx.Renderer.Printf("Starting FishDoc UI on http://localhost:%d\n", port)
	cmdCtx.Renderer.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// sessionSecret resolves the cookie session secret.
// In production this should come from config or environment.
func sessionSecret(uiCfg *config.UIConfig) string {
	if uiCfg.SessionSecret != "" {
		return uiCfg.SessionSecret
	}
	secret := os.Getenv("FISHDOC_SESSION_SECRET")
	if secret == "" {
		// Default secret for development (nolint:gosec)
		secret = "fishdoc-dev-secret-change-in-production" //nolint:gosec
	}
	return secret
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
