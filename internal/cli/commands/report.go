package commands

import (
	"fmt"

	"github.com/aquastack-labs/fishdoc/internal/report"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	var format string
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "report <consultation-id>",
		Short: "Generate a report for a stored consultation",
		Long: `Render a consultation as a TXT or Markdown report with disease
details and the full reasoning section, written to the reports
directory (or stdout with --stdout).`,
		Example: `  fishdoc report 9b1c2f3a
  fishdoc report 9b1c2f3a --format md
  fishdoc report 9b1c2f3a --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, cleanup, err := openHistory(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := findConsultation(store, args[0])
			if err != nil {
				return err
			}

			base := cmdCtx.KB.KB()
			if toStdout {
				switch format {
				case "txt", "text":
					cmdCtx.Renderer.Println(report.Text(c, base))
				case "md", "markdown":
					cmdCtx.Renderer.Println(report.Markdown(c, base))
				default:
					return fmt.Errorf("unsupported report format: %s (expected txt or md)", format)
				}
				return nil
			}

			gen := report.NewGenerator(cmdCtx.Cfg.ReportsDir)
			var path string
			switch format {
			case "txt", "text":
				path, err = gen.WriteText(c, base)
			case "md", "markdown":
				path, err = gen.WriteMarkdown(c, base)
			default:
				return fmt.Errorf("unsupported report format: %s (expected txt or md)", format)
			}
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Report written to %s", path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "txt", "Report format: txt or md")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the report instead of writing a file")

	return cmd
}
