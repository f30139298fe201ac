package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/report"
	"github.com/aquastack-labs/fishdoc/internal/state"
)

// NewConsultCommand creates the interactive consultation command.
func NewConsultCommand() *cobra.Command {
	var save bool
	var reportFormat string

	cmd := &cobra.Command{
		Use:   "consult",
		Short: "Run an interactive consultation",
		Long: `Guided diagnosis in the terminal: pick a species, toggle the
observed symptoms, set your overall certainty, and review the
conclusion with its reasoning trace.`,
		Example: `  fishdoc consult
  fishdoc consult --save
  fishdoc consult --save --report txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			base := cmdCtx.KB.KB()
			if len(base.Symptoms) == 0 {
				return fmt.Errorf("knowledge base has no symptoms (run 'fishdoc init' first)")
			}

			model := newConsultModel(base, cmdCtx.Engine)
			prog := tea.NewProgram(model, tea.WithAltScreen(),
				tea.WithOutput(cmd.OutOrStdout()))
			final, err := prog.Run()
			if err != nil {
				return fmt.Errorf("consultation failed: %w", err)
			}

			m, ok := final.(consultModel)
			if !ok || m.diag == nil {
				cmdCtx.Renderer.Muted("Consultation cancelled.")
				return nil
			}

			// The alt screen is gone; print a summary to the normal buffer.
			if err := renderDiagnosis(cmdCtx.Renderer, base, m.diag, false); err != nil {
				return err
			}

			if !save && reportFormat == "" {
				return nil
			}

			opts := &DiagnoseOptions{Species: m.chosenSpecies(), Save: save, Report: reportFormat}
			saved := consultationFromDiagnosis(m.diag, base, m.observed(), opts)

			if save {
				store, cleanup, err := openHistory(cmdCtx.Cfg)
				if err != nil {
					return err
				}
				defer cleanup()
				if err := store.SaveConsultation(saved); err != nil {
					return fmt.Errorf("failed to save consultation: %w", err)
				}
				cmdCtx.Renderer.Muted(fmt.Sprintf("Saved consultation %s", saved.ID))
			}
			if reportFormat != "" {
				if err := writeConsultReport(cmdCtx, saved, base, reportFormat); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the consultation to history")
	cmd.Flags().StringVar(&reportFormat, "report", "", "Write a report afterwards: txt or md")

	return cmd
}

func writeConsultReport(cmdCtx *CommandContext, saved *state.Consultation, base *kb.KnowledgeBase, format string) error {
	gen := report.NewGenerator(cmdCtx.Cfg.ReportsDir)
	var path string
	var err error
	switch format {
	case "txt", "text":
		path, err = gen.WriteText(saved, base)
	case "md", "markdown":
		path, err = gen.WriteMarkdown(saved, base)
	default:
		return fmt.Errorf("unsupported report format: %s (expected txt or md)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	cmdCtx.Renderer.Muted(fmt.Sprintf("Report written to %s", path))
	return nil
}
