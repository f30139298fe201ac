package commands

import (
	"fmt"
	"strings"

	"github.com/aquastack-labs/fishdoc/internal/cli/output"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/spf13/cobra"
)

// NewKBCommand creates the kb command group (knowledge base explorer).
func NewKBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Explore and maintain the knowledge base",
	}

	cmd.AddCommand(newKBSymptomsCommand())
	cmd.AddCommand(newKBDiseasesCommand())
	cmd.AddCommand(newKBSearchCommand())
	cmd.AddCommand(newKBValidateCommand())
	cmd.AddCommand(newKBExportCommand())

	return cmd
}

func newKBSymptomsCommand() *cobra.Command {
	var species []string
	var sortBy string
	var desc bool

	cmd := &cobra.Command{
		Use:   "symptoms [query]",
		Short: "List symptoms, optionally filtered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			q := kb.SymptomQuery{Species: species, SortBy: sortBy, Desc: desc}
			if len(args) > 0 {
				q.Text = args[0]
			}
			symptoms := cmdCtx.KB.KB().SearchSymptoms(q)

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(symptoms)
			}

			rows := make([][]string, 0, len(symptoms))
			for _, s := range symptoms {
				rows = append(rows, []string{
					s.ID,
					s.Name,
					strings.Join(s.Species, ", "),
					fmt.Sprintf("%.2f", s.EffectiveWeight()),
				})
			}
			r.Table([]string{"ID", "Name", "Species", "Weight"}, rows)
			r.Printf("(%d symptoms)\n", len(symptoms))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&species, "species", nil, "Only symptoms relevant to these species")
	cmd.Flags().StringVar(&sortBy, "sort", "id", "Sort by: id, name, weight")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")

	return cmd
}

func newKBDiseasesCommand() *cobra.Command {
	var species []string

	cmd := &cobra.Command{
		Use:   "diseases [query]",
		Short: "List diseases, optionally filtered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			q := kb.DiseaseQuery{Species: species}
			if len(args) > 0 {
				q.Text = args[0]
			}
			diseases := cmdCtx.KB.KB().SearchDiseases(q)

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(diseases)
			}

			rows := make([][]string, 0, len(diseases))
			for _, d := range diseases {
				rows = append(rows, []string{
					d.ID,
					d.Name,
					d.Cause,
					fmt.Sprintf("%d", len(d.Treatments)),
				})
			}
			r.Table([]string{"ID", "Name", "Cause", "Treatments"}, rows)
			r.Printf("(%d diseases)\n", len(diseases))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&species, "species", nil, "Only diseases relevant to these species")

	return cmd
}

func newKBSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search symptoms, diseases, and rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			base := cmdCtx.KB.KB()
			query := args[0]
			symptoms := base.SearchSymptoms(kb.SymptomQuery{Text: query})
			diseases := base.SearchDiseases(kb.DiseaseQuery{Text: query})
			rules := base.SearchRules(kb.RuleQuery{Text: query})

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{
					"symptoms": symptoms,
					"diseases": diseases,
					"rules":    rules,
				})
			}

			if len(symptoms)+len(diseases)+len(rules) == 0 {
				r.Printf("No matches for %q.\n", query)
				return nil
			}

			if len(symptoms) > 0 {
				r.Header(2, fmt.Sprintf("Symptoms (%d)", len(symptoms)))
				for _, s := range symptoms {
					r.Printf("  %-20s %s\n", s.ID, s.Name)
				}
			}
			if len(diseases) > 0 {
				r.Header(2, fmt.Sprintf("Diseases (%d)", len(diseases)))
				for _, d := range diseases {
					r.Printf("  %-20s %s\n", d.ID, d.Name)
				}
			}
			if len(rules) > 0 {
				r.Header(2, fmt.Sprintf("Rules (%d)", len(rules)))
				for _, m := range rules {
					r.Printf("  %-6s IF %s THEN %s (CF %.2f)\n",
						m.ID, strings.Join(m.Rule.If, " AND "), m.Rule.Then, m.Rule.EffectiveCF())
				}
			}
			return nil
		},
	}
}

func newKBValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate knowledge base consistency",
		Long: `Check the knowledge base for dangling references: rule antecedents
that name unknown symptoms, consequents that name unknown diseases and
feed no other rule, and weights or certainty factors outside [0,1].`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			base := cmdCtx.KB.KB()
			if err := base.Validate(); err != nil {
				return fmt.Errorf("knowledge base is invalid:\n%w", err)
			}
			cmdCtx.Renderer.Success(fmt.Sprintf(
				"Knowledge base OK: %d symptoms, %d diseases, %d rules",
				len(base.Symptoms), len(base.Diseases), len(base.Rules)))
			return nil
		},
	}
}

func newKBExportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the knowledge base as JSON or YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return cmdCtx.KB.KB().Export(cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json or yaml")

	return cmd
}
