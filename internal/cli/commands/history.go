package commands

import (
	"fmt"
	"time"

	"github.com/aquastack-labs/fishdoc/internal/cli/output"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/report"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command group.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and export past consultations",
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryStatsCommand())
	cmd.AddCommand(newHistoryExportCommand())
	cmd.AddCommand(newHistoryDeleteCommand())

	return cmd
}

// historyFilterFlags holds the shared search filter flags.
type historyFilterFlags struct {
	Query   string
	Disease string
	Species string
	From    string
	To      string
	Limit   int
	Offset  int
}

func (f *historyFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "Match consultation ID or disease name")
	cmd.Flags().StringVar(&f.Disease, "disease", "", "Only consultations concluding this disease ID")
	cmd.Flags().StringVar(&f.Species, "species", "", "Only consultations for this species")
	cmd.Flags().StringVar(&f.From, "from", "", "Only consultations on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.To, "to", "", "Only consultations before this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.Limit, "limit", 20, "Maximum results")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "Skip this many results")
}

func (f *historyFilterFlags) toFilter() (state.Filter, error) {
	filter := state.Filter{
		Query:     f.Query,
		DiseaseID: f.Disease,
		Species:   f.Species,
		Limit:     f.Limit,
		Offset:    f.Offset,
	}
	if f.From != "" {
		t, err := time.Parse("2006-01-02", f.From)
		if err != nil {
			return filter, fmt.Errorf("invalid --from date: %w", err)
		}
		filter.From = t
	}
	if f.To != "" {
		t, err := time.Parse("2006-01-02", f.To)
		if err != nil {
			return filter, fmt.Errorf("invalid --to date: %w", err)
		}
		filter.To = t
	}
	return filter, nil
}

func newHistoryListCommand() *cobra.Command {
	flags := &historyFilterFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List consultations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutKB(cmd)
			store, cleanup, err := openHistory(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			filter, err := flags.toFilter()
			if err != nil {
				return err
			}
			consultations, err := store.SearchConsultations(filter)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(consultations)
			}

			if len(consultations) == 0 {
				r.Println("No consultations found.")
				return nil
			}

			rows := make([][]string, 0, len(consultations))
			for _, c := range consultations {
				diagnosis := "inconclusive"
				if c.Conclusive() {
					diagnosis = fmt.Sprintf("%s (%.0f%%)", c.DiseaseName, c.CF*100)
				}
				rows = append(rows, []string{
					c.ID[:8],
					c.CreatedAt.Local().Format("2006-01-02 15:04"),
					c.Species,
					diagnosis,
					fmt.Sprintf("%d", len(c.Symptoms)),
				})
			}
			r.Table([]string{"ID", "Date", "Species", "Diagnosis", "Symptoms"}, rows)
			r.Printf("(%d consultations)\n", len(consultations))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <consultation-id>",
		Short: "Show one consultation with its full trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutKB(cmd)
			store, cleanup, err := openHistory(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := findConsultation(store, args[0])
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(c)
			}

			r.Header(1, fmt.Sprintf("Consultation %s", c.ID))
			r.Printf("Date:    %s\n", c.CreatedAt.Local().Format(time.RFC1123))
			if c.PatientName != "" {
				r.Printf("Fish:    %s\n", c.PatientName)
			}
			if c.Species != "" {
				r.Printf("Species: %s\n", c.Species)
			}
			r.Println("")
			r.Println("Reported symptoms:")
			for _, s := range c.Symptoms {
				name := s.Name
				if name == "" {
					name = s.SymptomID
				}
				r.Printf("  - %s (certainty %.0f%%)\n", name, s.CF*100)
			}
			r.Println("")
			if c.Conclusive() {
				r.Printf("Diagnosis: %s (%.1f%%)\n", c.DiseaseName, c.CF*100)
				if c.Recommendation != "" {
					r.Printf("Recommendation: %s\n", c.Recommendation)
				}
			} else {
				r.Println("Diagnosis: inconclusive")
			}
			if c.ReasoningPath != "" {
				r.Printf("Reasoning path: %s\n", c.ReasoningPath)
			}
			if len(c.Trace) > 0 {
				r.Println("")
				rows := make([][]string, 0, len(c.Trace))
				for _, step := range c.Trace {
					rows = append(rows, []string{
						fmt.Sprintf("%d", step.Step),
						step.RuleID,
						step.MatchedIf,
						step.Derived,
						fmt.Sprintf("%.2f -> %.2f", step.CFBefore, step.CFAfter),
					})
				}
				r.Table([]string{"Step", "Rule", "Matched", "Derived", "CF"}, rows)
			}
			return nil
		},
	}
}

func newHistoryStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show consultation and rule-usage statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutKB(cmd)
			store, cleanup, err := openHistory(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := store.Statistics()
			if err != nil {
				return err
			}
			usage, err := store.RuleUsage()
			if err != nil {
				return err
			}
			rows := enrichRuleUsage(usage, cmdCtx.Cfg.DatabaseDir)

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"statistics": stats, "rule_usage": rows})
			}

			r.Header(1, "Consultation statistics")
			r.Printf("Total consultations: %d\n", stats.TotalConsultations)
			r.Printf("Conclusive:          %d\n", stats.Conclusive)
			r.Printf("Distinct diseases:   %d\n", stats.UniqueDiseases)
			if len(stats.TopDiseases) > 0 {
				r.Println("")
				r.Println("Top diseases:")
				for _, d := range stats.TopDiseases {
					name := d.DiseaseName
					if name == "" {
						name = d.DiseaseID
					}
					r.Printf("  %-30s %d\n", name, d.Count)
				}
			}
			if len(rows) > 0 {
				r.Println("")
				r.Println("Most-used rules:")
				for _, u := range rows {
					label := u.RuleID
					if u.Concludes != "" {
						label = fmt.Sprintf("%s (%s)", u.RuleID, u.Concludes)
					}
					r.Printf("  %-24s fired %d times (last %s)\n",
						label, u.FiredCount, u.LastFiredAt.Local().Format("2006-01-02"))
				}
			}
			return nil
		},
	}
}

// ruleUsageRow is a rule's firing stats plus the display name of the
// disease it concludes, when the knowledge base still has the rule.
type ruleUsageRow struct {
	state.RuleUsage
	Concludes string `json:"concludes,omitempty"`
}

// enrichRuleUsage resolves each rule's consequent to its disease name. The
// knowledge base load is best-effort: stats stay usable with rule IDs only
// when no knowledge base is configured.
func enrichRuleUsage(usage []state.RuleUsage, databaseDir string) []ruleUsageRow {
	var base *kb.KnowledgeBase
	if store, err := kb.Open(databaseDir); err == nil {
		base = store.KB()
	}

	rows := make([]ruleUsageRow, 0, len(usage))
	for _, u := range usage {
		row := ruleUsageRow{RuleUsage: u}
		if base != nil {
			if rule, ok := base.Rules[u.RuleID]; ok {
				row.Concludes = base.DiseaseName(rule.Then)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func newHistoryExportCommand() *cobra.Command {
	flags := &historyFilterFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching consultations as CSV",
		Long: `Export consultation history as CSV. Without --out the CSV is written
to stdout; with --out a timestamped file is created in the reports
directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutKB(cmd)
			store, cleanup, err := openHistory(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			filter, err := flags.toFilter()
			if err != nil {
				return err
			}
			consultations, err := store.SearchConsultations(filter)
			if err != nil {
				return err
			}

			toFile, _ := cmd.Flags().GetBool("out")
			if !toFile {
				return report.CSV(cmd.OutOrStdout(), consultations)
			}

			path, err := report.NewGenerator(cmdCtx.Cfg.ReportsDir).WriteCSV(consultations)
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Exported %d consultations to %s", len(consultations), path))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().Bool("out", false, "Write to a timestamped file in the reports directory")
	return cmd
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <consultation-id>",
		Short: "Delete a consultation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutKB(cmd)
			store, cleanup, err := openHistory(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := findConsultation(store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteConsultation(c.ID); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Deleted consultation %s", c.ID))
			return nil
		},
	}
}

// findConsultation resolves a full or prefix consultation ID.
func findConsultation(store state.Store, id string) (*state.Consultation, error) {
	c, err := store.GetConsultation(id)
	if err == nil {
		return c, nil
	}

	// Fall back to prefix match so the shortened list IDs are usable.
	matches, searchErr := store.SearchConsultations(state.Filter{Query: id})
	if searchErr != nil || len(matches) == 0 {
		return nil, err
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("consultation ID %q is ambiguous (%d matches)", id, len(matches))
	}
	return matches[0], nil
}
