package engine

import "strings"

// Step records one rule firing for the explanation facility and the UI
// trace view.
type Step struct {
	Step        int      `json:"step"`
	Rule        string   `json:"rule"`
	MatchedIf   []string `json:"matched_if"`
	Derived     string   `json:"derived"`
	CFBefore    float64  `json:"cf_before"`
	DeltaCF     float64  `json:"delta_cf"`
	CFAfter     float64  `json:"cf_after"`
	FactsBefore []string `json:"facts_before"`
	FactsAfter  []string `json:"facts_after"`
	Why         string   `json:"why,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// MatchedIfString renders the matched antecedents as a comma-separated
// list.
func (s Step) MatchedIfString() string {
	return strings.Join(s.MatchedIf, ", ")
}

// ReasoningPath renders a fired-rule sequence as "R1 -> R3 -> R2".
func ReasoningPath(usedRules []string) string {
	return strings.Join(usedRules, " -> ")
}
