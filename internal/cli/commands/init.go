package commands

import (
	"fmt"
	"os"

	"github.com/aquastack-labs/fishdoc/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new FishDoc project",
		Long: `Initialize a new FishDoc project with a starter knowledge base.

This creates:
  - database/ with symptoms.json, diseases.json, and rules.json
  - fishdoc.yaml configuration file

The starter knowledge base covers common freshwater diseases (white
spot, fin rot, bacterial gill disease, water mold, dropsy) and is
meant to be extended with 'fishdoc rules add'.`,
		Example: `  # Initialize in current directory
  fishdoc init

  # Initialize in a new directory
  fishdoc init my-hatchery

  # Force overwrite existing config
  fishdoc init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// Create renderer
			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := dir + "/fishdoc.yaml"
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("fishdoc.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("starter", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	// List created files
	files, _ := listTemplateFiles("starter")
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("FishDoc project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Review the starter knowledge base in database/")
	r.Println("  2. Run 'fishdoc diagnose -s G1 -s G4' for a first diagnosis")
	r.Println("  3. Run 'fishdoc serve' for the web UI")
	r.Println("  4. Add your own rules with 'fishdoc rules add'")

	return nil
}
