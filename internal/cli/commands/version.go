package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command. commit and date come from
// the build, "unknown" when built without ldflags.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display FishDoc version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "FishDoc v%s\n", version)
			_, _ = fmt.Fprintln(out, "Rule-based fish disease diagnosis built with Go")
			if commit != "unknown" {
				_, _ = fmt.Fprintf(out, "commit: %s\n", commit)
			}
			if date != "unknown" {
				_, _ = fmt.Fprintf(out, "built:  %s\n", date)
			}
		},
	}
}
