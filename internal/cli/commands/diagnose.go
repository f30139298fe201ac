package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aquastack-labs/fishdoc/internal/cli/output"
	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/report"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/spf13/cobra"
)

// DiagnoseOptions holds options for the diagnose command.
type DiagnoseOptions struct {
	Symptoms []string
	CF       float64
	Name     string
	Species  string
	Notes    string
	Save     bool
	Report   string
	Explain  bool
	Check    string
}

// NewDiagnoseCommand creates the diagnose command.
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Run a one-shot diagnosis from observed symptoms",
		Long: `Run the inference engine against a list of observed symptoms.

Symptoms are given by ID, optionally with a per-symptom certainty:
"s_white_spots" or "s_white_spots=0.8". Symptoms without an explicit
certainty use --cf (default 1.0).`,
		Example: `  # Diagnose from two symptoms
  fishdoc diagnose -s s_white_spots -s s_scratching

  # Per-symptom certainty and save to history
  fishdoc diagnose -s s_white_spots=0.9 -s s_scratching=0.6 --save

  # Write a text report and show the reasoning narrative
  fishdoc diagnose -s s_frayed_fins --report txt --explain

  # Test a specific disease hypothesis (backward chaining)
  fishdoc diagnose -s s_frayed_fins --check d_fin_rot

  # JSON output for scripting
  fishdoc diagnose -s s_white_spots -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiagnose(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Symptoms, "symptom", "s", nil, "Observed symptom ID, optionally id=cf (repeatable)")
	cmd.Flags().Float64Var(&opts.CF, "cf", 1.0, "Default certainty for symptoms without an explicit value")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Fish or owner name for the consultation record")
	cmd.Flags().StringVar(&opts.Species, "species", "", "Fish species")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "Free-form notes stored with the consultation")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the consultation to history")
	cmd.Flags().StringVar(&opts.Report, "report", "", "Write a report to the reports directory: txt or md")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "Print the full reasoning narrative")
	cmd.Flags().StringVar(&opts.Check, "check", "", "Disease ID to test goal-driven instead of ranking all diseases")

	return cmd
}

func runDiagnose(cmd *cobra.Command, opts *DiagnoseOptions) error {
	if len(opts.Symptoms) == 0 {
		return fmt.Errorf("at least one --symptom is required")
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	observed, err := parseSymptoms(opts.Symptoms, opts.CF)
	if err != nil {
		return err
	}

	base := cmdCtx.KB.KB()

	var diag *engine.Diagnosis
	if opts.Check != "" {
		if _, ok := base.Diseases[opts.Check]; !ok {
			return fmt.Errorf("unknown disease: %s", opts.Check)
		}
		diag = cmdCtx.Engine.Check(base, observed, opts.Check)
	} else {
		diag = cmdCtx.Engine.Diagnose(base, observed)
	}

	if err := renderDiagnosis(cmdCtx.Renderer, base, diag, opts.Explain); err != nil {
		return err
	}

	var saved *state.Consultation
	if opts.Save || opts.Report != "" {
		saved = consultationFromDiagnosis(diag, base, observed, opts)
	}

	if opts.Save {
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

	if opts.Report != "" {
		gen := report.NewGenerator(cmdCtx.Cfg.ReportsDir)
		var path string
		switch opts.Report {
		case "txt", "text":
			path, err = gen.WriteText(saved, base)
		case "md", "markdown":
			path, err = gen.WriteMarkdown(saved, base)
		default:
			return fmt.Errorf("unsupported report format: %s (expected txt or md)", opts.Report)
		}
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		cmdCtx.Renderer.Muted(fmt.Sprintf("Report written to %s", path))
	}

	return nil
}

// parseSymptoms parses "id" and "id=cf" entries into a fact map.
func parseSymptoms(entries []string, defaultCF float64) (map[string]float64, error) {
	observed := make(map[string]float64, len(entries))
	for _, entry := range entries {
		id, cf := entry, defaultCF
		if i := strings.IndexByte(entry, '='); i >= 0 {
			id = entry[:i]
			parsed, err := strconv.ParseFloat(entry[i+1:], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid symptom certainty %q: %w", entry, err)
			}
			cf = parsed
		}
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("empty symptom ID in %q", entry)
		}
		if cf < 0 || cf > 1 {
			return nil, fmt.Errorf("symptom certainty for %s must be in [0,1], got %g", id, cf)
		}
		observed[id] = cf
	}
	return observed, nil
}

func renderDiagnosis(r *output.Renderer, base *kb.KnowledgeBase, diag *engine.Diagnosis, explain bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(diag)
	}

	if !diag.Conclusive() {
		r.Header(1, "No conclusive diagnosis")
		r.Printf("No disease reached the certainty threshold of %.2f.\n", diag.Threshold)
		if ranked := engine.RankedDiseases(base, diag.Facts); len(ranked) > 0 {
			r.Println("")
			r.Println("Closest candidates:")
			for _, cand := range ranked {
				r.Printf("  %-24s %.2f\n", cand.Name, cand.CF)
			}
		}
		r.Println("")
		r.Muted("Consider consulting a veterinarian or reporting more symptoms.")
		return nil
	}

	r.Header(1, fmt.Sprintf("Diagnosis: %s", diag.ConclusionName))
	r.Printf("Certainty: %.1f%% (threshold %.0f%%)\n", diag.CF*100, diag.Threshold*100)
	if diag.Recommendation != "" {
		r.Println("")
		r.Printf("Recommendation: %s\n", diag.Recommendation)
	}
	if len(diag.Prevention) > 0 {
		r.Println("")
		r.Println("Prevention:")
		for _, p := range diag.Prevention {
			r.Printf("  - %s\n", p)
		}
	}
	if len(diag.UsedRules) > 0 {
		r.Println("")
		r.Printf("Reasoning path: %s\n", diag.Path())
	}

	if explain {
		r.Println("")
		r.Println(engine.NewExplainer(base).Report(diag))
	}
	return nil
}

// consultationFromDiagnosis converts an engine result into a persistable
// consultation record.
func consultationFromDiagnosis(diag *engine.Diagnosis, base *kb.KnowledgeBase, observed map[string]float64, opts *DiagnoseOptions) *state.Consultation {
	c := &state.Consultation{
		PatientName:    opts.Name,
		Species:        opts.Species,
		Notes:          opts.Notes,
		DiseaseID:      diag.Conclusion,
		DiseaseName:    diag.ConclusionName,
		CF:             diag.CF,
		Method:         diag.Method,
		Recommendation: diag.Recommendation,
		UsedRules:      diag.UsedRules,
	}
	for id, cf := range observed {
		c.Symptoms = append(c.Symptoms, state.ReportedSymptom{
			SymptomID: id,
			Name:      base.SymptomName(id),
			CF:        cf,
		})
	}
	for _, step := range diag.Trace {
		c.Trace = append(c.Trace, state.TraceStep{
			Step:      step.Step,
			RuleID:    step.Rule,
			Derived:   step.Derived,
			CFBefore:  step.CFBefore,
			DeltaCF:   step.DeltaCF,
			CFAfter:   step.CFAfter,
			MatchedIf: step.MatchedIfString(),
		})
	}
	return c
}
