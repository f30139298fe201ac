package engine

import (
	"fmt"
	"strings"

	"github.com/aquastack-labs/fishdoc/internal/kb"
)

// Explainer answers WHY and HOW questions about a knowledge base and a
// completed inference trace.
type Explainer struct {
	base *kb.KnowledgeBase
}

// NewExplainer returns an Explainer over base.
func NewExplainer(base *kb.KnowledgeBase) *Explainer {
	return &Explainer{base: base}
}

// WhyAsk explains why a symptom question matters: which rules reference the
// symptom and which diseases those rules can eventually conclude.
func (x *Explainer) WhyAsk(symptomID string) string {
	sym, ok := x.base.Symptoms[symptomID]
	if !ok {
		return fmt.Sprintf("Symptom %q is not in the knowledge base.", symptomID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Symptom %s (%s) is asked because:\n", symptomID, sym.Name)

	referenced := false
	for _, rid := range ruleOrder(x.base.Rules) {
		rule := x.base.Rules[rid]
		if !containsStr(rule.If, symptomID) {
			continue
		}
		referenced = true
		fmt.Fprintf(&b, "- rule %s uses it to conclude %s (CF %.2f)\n",
			rid, x.base.DiseaseName(rule.Then), rule.EffectiveCF())
		if rule.AskWhy != "" {
			fmt.Fprintf(&b, "  %s\n", rule.AskWhy)
		}
	}
	if !referenced {
		fmt.Fprintf(&b, "- no rule currently references it\n")
	}
	return b.String()
}

// WhyRule explains a single rule: its antecedents, consequent, certainty
// factor and authored rationale.
func (x *Explainer) WhyRule(ruleID string) string {
	rule, ok := x.base.Rules[ruleID]
	if !ok {
		return fmt.Sprintf("Rule %q is not in the knowledge base.", ruleID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rule %s:\n", ruleID)
	fmt.Fprintf(&b, "  IF   %s\n", x.namedFacts(rule.If))
	fmt.Fprintf(&b, "  THEN %s (CF %.2f)\n", x.factName(rule.Then), rule.EffectiveCF())
	if rule.AskWhy != "" {
		fmt.Fprintf(&b, "  Rationale: %s\n", rule.AskWhy)
	}
	if rule.Recommendation != "" {
		fmt.Fprintf(&b, "  Recommendation: %s\n", rule.Recommendation)
	}
	if rule.Source != "" {
		fmt.Fprintf(&b, "  Source: %s\n", rule.Source)
	}
	return b.String()
}

// HowConclusion explains how a fact was derived, walking the trace steps that
// produced it and, recursively, the steps that produced their antecedents.
func (x *Explainer) HowConclusion(trace []Step, factID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "How %s was concluded:\n", x.factName(factID))
	seen := make(map[string]struct{})
	x.howFact(&b, trace, factID, 0, seen)
	return b.String()
}

func (x *Explainer) howFact(b *strings.Builder, trace []Step, factID string, depth int, seen map[string]struct{}) {
	if depth > len(trace) {
		return
	}
	if _, ok := seen[factID]; ok {
		return
	}
	seen[factID] = struct{}{}

	indent := strings.Repeat("  ", depth)
	derived := false
	for _, step := range trace {
		if step.Derived != factID {
			continue
		}
		derived = true
		fmt.Fprintf(b, "%s- rule %s fired: IF %s THEN %s (CF %.2f -> %.2f)\n",
			indent, step.Rule, x.namedFacts(step.MatchedIf), x.factName(factID),
			step.CFBefore, step.CFAfter)
		for _, ant := range step.MatchedIf {
			x.howFact(b, trace, ant, depth+1, seen)
		}
	}
	if !derived {
		fmt.Fprintf(b, "%s- %s was given as input\n", indent, x.factName(factID))
	}
}

// Report renders the full reasoning of a diagnosis as markdown.
func (x *Explainer) Report(diag *Diagnosis) string {
	var b strings.Builder
	b.WriteString("## Reasoning\n\n")

	if len(diag.Trace) == 0 {
		b.WriteString("No rule fired for the given symptoms.\n")
	} else {
		for _, step := range diag.Trace {
			fmt.Fprintf(&b, "%d. **%s**: IF %s THEN %s (CF %.2f, +%.2f -> %.2f)\n",
				step.Step, step.Rule, x.namedFacts(step.MatchedIf),
				x.factName(step.Derived), step.CFBefore, step.DeltaCF, step.CFAfter)
		}
	}

	b.WriteString("\n## Conclusion\n\n")
	if diag.Conclusive() {
		fmt.Fprintf(&b, "**%s** with certainty %.2f (threshold %.2f).\n",
			diag.ConclusionName, diag.CF, diag.Threshold)
		fmt.Fprintf(&b, "\nPath: %s\n", diag.Path())
		x.appendHow(&b, diag)
	} else {
		fmt.Fprintf(&b, "No disease reached the certainty threshold of %.2f.\n", diag.Threshold)
		x.appendCandidates(&b, diag)
	}
	return b.String()
}

func (x *Explainer) appendHow(b *strings.Builder, diag *Diagnosis) {
	b.WriteString("\n")
	b.WriteString(x.HowConclusion(diag.Trace, diag.Conclusion))
}

func (x *Explainer) appendCandidates(b *strings.Builder, diag *Diagnosis) {
	ranked := RankedDiseases(x.base, diag.Facts)
	if len(ranked) == 0 {
		return
	}
	b.WriteString("\nCandidates below threshold:\n")
	for _, rd := range ranked {
		fmt.Fprintf(b, "- %s: %.2f\n", rd.Name, rd.CF)
	}
}

func (x *Explainer) factName(id string) string {
	if name := x.base.DiseaseName(id); name != id {
		return fmt.Sprintf("%s (%s)", id, name)
	}
	if name := x.base.SymptomName(id); name != id {
		return fmt.Sprintf("%s (%s)", id, name)
	}
	return id
}

func (x *Explainer) namedFacts(ids []string) string {
	named := make([]string, len(ids))
	for i, id := range ids {
		named[i] = x.factName(id)
	}
	return strings.Join(named, " AND ")
}

func containsStr(xs []string, v string) bool {
	for _, s := range xs {
		if s == v {
			return true
		}
	}
	return false
}
