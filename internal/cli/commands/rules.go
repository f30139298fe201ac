package commands

import (
	"fmt"
	"strings"

	"github.com/aquastack-labs/fishdoc/internal/cli/output"
	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/spf13/cobra"
)

// ruleFlags holds the rule-editing flags shared by add and edit.
type ruleFlags struct {
	If             []string
	Then           string
	CF             float64
	AskWhy         string
	Recommendation string
	Source         string
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.If, "if", nil, "Antecedent symptom IDs (repeatable or comma-separated)")
	cmd.Flags().StringVar(&f.Then, "then", "", "Consequent disease or fact ID")
	cmd.Flags().Float64Var(&f.CF, "cf", 1.0, "Rule certainty factor in [0,1]")
	cmd.Flags().StringVar(&f.AskWhy, "ask-why", "", "Rationale shown by the explanation facility")
	cmd.Flags().StringVar(&f.Recommendation, "recommendation", "", "Treatment recommendation attached to the rule")
	cmd.Flags().StringVar(&f.Source, "source", "", "Literature or expert source")
}

// NewRulesCommand creates the rules command group (knowledge acquisition).
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List and maintain diagnosis rules",
		Long: `Knowledge acquisition: list, inspect, add, edit, and delete the
IF/THEN rules in the knowledge base. Edits are validated against the
known symptoms and diseases and persisted back to rules.json.`,
	}

	cmd.AddCommand(newRulesListCommand())
	cmd.AddCommand(newRulesShowCommand())
	cmd.AddCommand(newRulesAddCommand())
	cmd.AddCommand(newRulesEditCommand())
	cmd.AddCommand(newRulesDeleteCommand())

	return cmd
}

func newRulesListCommand() *cobra.Command {
	var disease string
	var symptom string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			base := cmdCtx.KB.KB()
			matches := base.SearchRules(kb.RuleQuery{
				Consequent: disease,
				Antecedent: symptom,
			})

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(matches)
			}

			if len(matches) == 0 {
				r.Println("No rules found.")
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				rows = append(rows, []string{
					m.ID,
					strings.Join(m.Rule.If, " AND "),
					m.Rule.Then,
					fmt.Sprintf("%.2f", m.Rule.EffectiveCF()),
				})
			}
			r.Table([]string{"ID", "IF", "THEN", "CF"}, rows)
			r.Printf("(%d rules)\n", len(matches))
			return nil
		},
	}

	cmd.Flags().StringVar(&disease, "disease", "", "Only rules concluding this disease")
	cmd.Flags().StringVar(&symptom, "symptom", "", "Only rules using this symptom")

	return cmd
}

func newRulesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-id>",
		Short: "Show a rule with symptom names, rationale, and source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			base := cmdCtx.KB.KB()
			rule, ok := cmdCtx.KB.GetRule(args[0])
			if !ok {
				return fmt.Errorf("rule not found: %s", args[0])
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"id": args[0], "rule": rule})
			}

			r.Println(engine.NewExplainer(base).WhyRule(args[0]))
			return nil
		},
	}
}

func newRulesAddCommand() *cobra.Command {
	flags := &ruleFlags{}
	var id string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule",
		Example: `  fishdoc rules add --if s_white_spots,s_scratching --then d_ich --cf 0.8
  fishdoc rules add --id R42 --if s_frayed_fins --then d_fin_rot --cf 0.7 \
    --recommendation "Partial water changes" --source "Noga"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			if id == "" {
				id = cmdCtx.KB.NextRuleID()
			}
			rule := kb.Rule{
				If:             flags.If,
				Then:           flags.Then,
				CF:             flags.CF,
				AskWhy:         flags.AskWhy,
				Recommendation: flags.Recommendation,
				Source:         flags.Source,
			}
			if err := cmdCtx.KB.AddRule(id, rule); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Added rule %s: IF %s THEN %s (CF %.2f)",
				id, strings.Join(rule.If, " AND "), rule.Then, rule.EffectiveCF()))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Rule ID (default: next free R<n>)")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("if")
	_ = cmd.MarkFlagRequired("then")

	return cmd
}

func newRulesEditCommand() *cobra.Command {
	flags := &ruleFlags{}

	cmd := &cobra.Command{
		Use:   "edit <rule-id>",
		Short: "Replace an existing rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			existing, ok := cmdCtx.KB.GetRule(args[0])
			if !ok {
				return fmt.Errorf("rule not found: %s", args[0])
			}

			// Unchanged flags keep the existing values.
			rule := existing
			if cmd.Flags().Changed("if") {
				rule.If = flags.If
			}
			if cmd.Flags().Changed("then") {
				rule.Then = flags.Then
			}
			if cmd.Flags().Changed("cf") {
				rule.CF = flags.CF
			}
			if cmd.Flags().Changed("ask-why") {
				rule.AskWhy = flags.AskWhy
			}
			if cmd.Flags().Changed("recommendation") {
				rule.Recommendation = flags.Recommendation
			}
			if cmd.Flags().Changed("source") {
				rule.Source = flags.Source
			}

			if err := cmdCtx.KB.EditRule(args[0], rule); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Updated rule %s", args[0]))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newRulesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if err := cmdCtx.KB.DeleteRule(args[0]); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Deleted rule %s", args[0]))
			return nil
		},
	}
}
