// Package report renders consultation results as TXT and Markdown
// documents and exports history to CSV.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
)

// Generator writes report files into an output directory with timestamped
// names.
type Generator struct {
	dir string
	now func() time.Time
}

// NewGenerator creates a generator writing into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (g *Generator) Dir() string {
	return g.dir
}

// WriteText renders the consultation as a plain-text report and writes it
// to a timestamped .txt file, returning the path.
func (g *Generator) WriteText(c *state.Consultation, base *kb.KnowledgeBase) (string, error) {
	return g.write("txt", Text(c, base))
}

// WriteMarkdown renders the consultation as Markdown and writes it to a
// timestamped .md file, returning the path.
func (g *Generator) WriteMarkdown(c *state.Consultation, base *kb.KnowledgeBase) (string, error) {
	return g.write("md", Markdown(c, base))
}

func (g *Generator) write(ext, content string) (string, error) {
	if err := os.MkdirAll(g.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	name := fmt.Sprintf("consultation_%s.%s", g.now().Format("20060102_150405"), ext)
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Text renders a consultation as a plain-text report.
func Text(c *state.Consultation, base *kb.KnowledgeBase) string {
	var b strings.Builder
	rule := strings.Repeat("=", 50)

	b.WriteString(rule + "\n")
	b.WriteString("           CONSULTATION REPORT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Date: %s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))
	if c.PatientName != "" {
		fmt.Fprintf(&b, "Fish: %s\n", c.PatientName)
	}
	if c.Species != "" {
		fmt.Fprintf(&b, "Species: %s\n", c.Species)
	}
	b.WriteString("\nREPORTED SYMPTOMS:\n")
	if len(c.Symptoms) == 0 {
		b.WriteString("  (none recorded)\n")
	}
	for _, sym := range c.Symptoms {
		name := sym.Name
		if name == "" {
			name = base.SymptomName(sym.SymptomID)
		}
		fmt.Fprintf(&b, "  - %s (certainty %.0f%%)\n", name, sym.CF*100)
	}
	b.WriteString("\n" + rule + "\n\n")

	if !c.Conclusive() {
		b.WriteString("RESULT: no disease could be concluded with confidence.\n")
		b.WriteString("\nAdvice: consult a veterinarian for further examination.\n")
		return b.String()
	}

	name := c.DiseaseName
	if name == "" {
		name = base.DiseaseName(c.DiseaseID)
	}
	fmt.Fprintf(&b, "--- DIAGNOSIS: %s ---\n", strings.ToUpper(name))
	fmt.Fprintf(&b, "System confidence: %.1f%%\n\n", c.CF*100)

	if disease, ok := base.Diseases[c.DiseaseID]; ok {
		if disease.Cause != "" {
			fmt.Fprintf(&b, "Cause:\n%s\n\n", disease.Cause)
		}
		if disease.Description != "" {
			fmt.Fprintf(&b, "Description:\n%s\n\n", disease.Description)
		}
		if len(disease.Treatments) > 0 {
			b.WriteString("Treatment:\n")
			for _, t := range disease.Treatments {
				fmt.Fprintf(&b, "  - %s\n", t)
			}
			b.WriteString("\n")
		}
		if len(disease.Prevention) > 0 {
			b.WriteString("Prevention:\n")
			for _, p := range disease.Prevention {
				fmt.Fprintf(&b, "  - %s\n", p)
			}
			b.WriteString("\n")
		}
	}
	if c.Recommendation != "" {
		fmt.Fprintf(&b, "Recommendation:\n%s\n\n", c.Recommendation)
	}

	b.WriteString(rule + "\n")
	b.WriteString("--- REASONING (HOW) ---\n")
	b.WriteString(rule + "\n\n")

	if c.ReasoningPath != "" {
		fmt.Fprintf(&b, "Rule order: %s\n\n", c.ReasoningPath)
	}
	if len(c.UsedRules) > 0 {
		b.WriteString("Rules used:\n")
		for _, rid := range dedupe(c.UsedRules) {
			r, ok := base.Rules[rid]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  - %s: IF %s THEN %s (CF %.2f)\n",
				rid, strings.Join(r.If, " AND "), r.Then, r.EffectiveCF())
		}
		b.WriteString("\n")
	}
	if len(c.Trace) > 0 {
		b.WriteString("Steps:\n")
		for _, step := range c.Trace {
			fmt.Fprintf(&b, "  - Step %d: rule %s fired on [%s], deriving %q with CF %.2f.\n",
				step.Step, step.RuleID, step.MatchedIf, step.Derived, step.CFAfter)
		}
	}
	return b.String()
}

// Markdown renders a consultation as a Markdown report.
func Markdown(c *state.Consultation, base *kb.KnowledgeBase) string {
	var b strings.Builder

	b.WriteString("# Consultation Report\n\n")
	fmt.Fprintf(&b, "- **Date:** %s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))
	if c.PatientName != "" {
		fmt.Fprintf(&b, "- **Fish:** %s\n", c.PatientName)
	}
	if c.Species != "" {
		fmt.Fprintf(&b, "- **Species:** %s\n", c.Species)
	}

	b.WriteString("\n## Reported symptoms\n\n")
	if len(c.Symptoms) == 0 {
		b.WriteString("_None recorded._\n")
	}
	for _, sym := range c.Symptoms {
		name := sym.Name
		if name == "" {
			name = base.SymptomName(sym.SymptomID)
		}
		fmt.Fprintf(&b, "- %s (certainty %.0f%%)\n", name, sym.CF*100)
	}

	b.WriteString("\n## Diagnosis\n\n")
	if !c.Conclusive() {
		b.WriteString("No disease could be concluded with confidence. ")
		b.WriteString("Consult a veterinarian for further examination.\n")
		return b.String()
	}

	name := c.DiseaseName
	if name == "" {
		name = base.DiseaseName(c.DiseaseID)
	}
	fmt.Fprintf(&b, "**%s** with %.1f%% confidence.\n", name, c.CF*100)

	if disease, ok := base.Diseases[c.DiseaseID]; ok {
		if disease.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", disease.Description)
		}
		if disease.Cause != "" {
			fmt.Fprintf(&b, "\n**Cause:** %s\n", disease.Cause)
		}
		if len(disease.Treatments) > 0 {
			b.WriteString("\n### Treatment\n\n")
			for _, t := range disease.Treatments {
				fmt.Fprintf(&b, "- %s\n", t)
			}
		}
		if len(disease.Prevention) > 0 {
			b.WriteString("\n### Prevention\n\n")
			for _, p := range disease.Prevention {
				fmt.Fprintf(&b, "- %s\n", p)
			}
		}
	}
	if c.Recommendation != "" {
		fmt.Fprintf(&b, "\n> %s\n", c.Recommendation)
	}

	if len(c.Trace) > 0 {
		b.WriteString("\n## Reasoning\n\n")
		if c.ReasoningPath != "" {
			fmt.Fprintf(&b, "Rule order: `%s`\n\n", c.ReasoningPath)
		}
		b.WriteString("| Step | Rule | Matched | Derived | CF |\n")
		b.WriteString("|-----:|------|---------|---------|---:|\n")
		for _, step := range c.Trace {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %.2f |\n",
				step.Step, step.RuleID, step.MatchedIf, step.Derived, step.CFAfter)
		}
	}
	return b.String()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
