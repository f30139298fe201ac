// Package kb provides the JSON-backed knowledge base: symptoms, diseases,
// and IF/THEN rules with certainty factors.
package kb

import "sort"

// Symptom is one observable sign the user can report.
type Symptom struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Question    string   `json:"question,omitempty"`
	Species     []string `json:"species,omitempty"`
	// Weight scales the user-supplied certainty for this symptom. Zero
	// means "unset" and is treated as 1.0.
	Weight float64 `json:"weight,omitempty"`
}

// EffectiveWeight returns the weight with the unset-means-1.0 convention
// applied, clamped to [0,1].
func (s Symptom) EffectiveWeight() float64 {
	if s.Weight == 0 {
		return 1.0
	}
	return Clamp01(s.Weight)
}

// AppliesTo reports whether the symptom is relevant for the given species.
// A symptom with no species list applies to all species.
func (s Symptom) AppliesTo(species string) bool {
	if len(s.Species) == 0 {
		return true
	}
	for _, sp := range s.Species {
		if sp == species {
			return true
		}
	}
	return false
}

// Disease is one diagnosable condition.
type Disease struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Cause       string   `json:"cause,omitempty"`
	Treatments  []string `json:"treatments,omitempty"`
	Prevention  []string `json:"prevention,omitempty"`
	Species     []string `json:"species,omitempty"`
}

// Rule is a single IF/THEN production. Antecedents are symptom IDs (or the
// consequents of other rules, for chained derivations); the consequent is a
// disease ID or an intermediate fact.
type Rule struct {
	If []string `json:"IF"`
	// Then names the fact derived when all antecedents hold.
	Then string `json:"THEN"`
	// CF is the rule's certainty factor in [0,1]. Zero means "unset" and
	// is treated as 1.0.
	CF float64 `json:"CF"`

	// Optional authoring metadata surfaced by the explanation facility.
	AskWhy         string `json:"ask_why,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	Source         string `json:"source,omitempty"`
}

// EffectiveCF returns the rule CF with the unset-means-1.0 convention
// applied, clamped to [0,1].
func (r Rule) EffectiveCF() float64 {
	if r.CF == 0 {
		return 1.0
	}
	return Clamp01(r.CF)
}

// KnowledgeBase holds a fully loaded knowledge base. Rules are keyed by
// rule ID (R1, R2, ...), symptoms and diseases by their own IDs.
type KnowledgeBase struct {
	Symptoms map[string]Symptom
	Diseases map[string]Disease
	Rules    map[string]Rule
}

// NewKnowledgeBase returns an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		Symptoms: make(map[string]Symptom),
		Diseases: make(map[string]Disease),
		Rules:    make(map[string]Rule),
	}
}

// SymptomName returns the display name for a symptom ID, falling back to
// the ID itself.
func (kb *KnowledgeBase) SymptomName(id string) string {
	if s, ok := kb.Symptoms[id]; ok && s.Name != "" {
		return s.Name
	}
	return id
}

// DiseaseName returns the display name for a disease ID, falling back to
// the ID itself.
func (kb *KnowledgeBase) DiseaseName(id string) string {
	if d, ok := kb.Diseases[id]; ok && d.Name != "" {
		return d.Name
	}
	return id
}

// Species returns the sorted union of species mentioned by symptoms and
// diseases.
func (kb *KnowledgeBase) Species() []string {
	seen := make(map[string]struct{})
	for _, s := range kb.Symptoms {
		for _, sp := range s.Species {
			seen[sp] = struct{}{}
		}
	}
	for _, d := range kb.Diseases {
		for _, sp := range d.Species {
			seen[sp] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for sp := range seen {
		out = append(out, sp)
	}
	sort.Strings(out)
	return out
}

// Clamp01 clamps v to the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
