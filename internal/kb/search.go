package kb

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	titleCaser = cases.Title(language.English)
)

// NormalizeText lowercases, turns underscores and dashes into spaces,
// strips punctuation, and collapses whitespace. Both queries and candidate
// values go through it so "white_spot" matches "White Spot".
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = strings.NewReplacer("_", " ", "-", " ").Replace(text)
	text = nonAlnum.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// DisplayName turns an identifier-ish name into a title-cased label for the
// UI ("bintik_putih" -> "Bintik Putih").
func DisplayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// HighlightQuery wraps case-insensitive occurrences of query in text with
// markdown bold markers, for UI search results.
func HighlightQuery(text, query string) string {
	if text == "" || query == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(query))
	return re.ReplaceAllStringFunc(text, func(m string) string { return "**" + m + "**" })
}

func matchesQuery(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := NormalizeText(query)
	for _, f := range fields {
		if strings.Contains(NormalizeText(f), q) {
			return true
		}
	}
	return false
}

func matchesSpecies(itemSpecies, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	// No species on the item means it is general and passes any filter.
	if len(itemSpecies) == 0 {
		return true
	}
	for _, sp := range itemSpecies {
		for _, f := range filter {
			if sp == f {
				return true
			}
		}
	}
	return false
}

// SymptomQuery filters and sorts symptoms.
type SymptomQuery struct {
	Text      string
	Species   []string
	WeightMin *float64
	WeightMax *float64
	SortBy    string // "id" (default), "name", "weight"
	Desc      bool
}

// SearchSymptoms returns the symptoms matching the query, sorted.
func (kb *KnowledgeBase) SearchSymptoms(q SymptomQuery) []Symptom {
	var out []Symptom
	for _, s := range kb.Symptoms {
		if !matchesQuery(q.Text, s.ID, s.Name, s.Description, s.Question) {
			continue
		}
		if !matchesSpecies(s.Species, q.Species) {
			continue
		}
		w := s.EffectiveWeight()
		if q.WeightMin != nil && w < *q.WeightMin {
			continue
		}
		if q.WeightMax != nil && w > *q.WeightMax {
			continue
		}
		out = append(out, s)
	}

	less := func(i, j int) bool { return out[i].ID < out[j].ID }
	switch q.SortBy {
	case "name":
		less = func(i, j int) bool {
			return NormalizeText(out[i].Name) < NormalizeText(out[j].Name)
		}
	case "weight":
		less = func(i, j int) bool {
			return out[i].EffectiveWeight() < out[j].EffectiveWeight()
		}
	}
	if q.Desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}

// DiseaseQuery filters and sorts diseases.
type DiseaseQuery struct {
	Text    string
	Species []string
	SortBy  string // "id" (default), "name"
	Desc    bool
}

// SearchDiseases returns the diseases matching the query, sorted.
func (kb *KnowledgeBase) SearchDiseases(q DiseaseQuery) []Disease {
	var out []Disease
	for _, d := range kb.Diseases {
		fields := []string{d.ID, d.Name, d.Description, d.Cause}
		fields = append(fields, d.Treatments...)
		fields = append(fields, d.Prevention...)
		if !matchesQuery(q.Text, fields...) {
			continue
		}
		if !matchesSpecies(d.Species, q.Species) {
			continue
		}
		out = append(out, d)
	}

	less := func(i, j int) bool { return out[i].ID < out[j].ID }
	if q.SortBy == "name" {
		less = func(i, j int) bool {
			return NormalizeText(out[i].Name) < NormalizeText(out[j].Name)
		}
	}
	if q.Desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}

// RuleQuery filters and sorts rules.
type RuleQuery struct {
	Text       string
	Antecedent string // only rules whose IF contains this fact
	Consequent string // only rules whose THEN equals this fact
	CFMin      *float64
	CFMax      *float64
	SortBy     string // "id" (default), "cf"
	Desc       bool
}

// RuleMatch pairs a rule with its ID for search results.
type RuleMatch struct {
	ID   string
	Rule Rule
}

// SearchRules returns the rules matching the query, sorted.
func (kb *KnowledgeBase) SearchRules(q RuleQuery) []RuleMatch {
	var out []RuleMatch
	for id, r := range kb.Rules {
		fields := []string{id, r.Then, r.AskWhy, r.Recommendation, r.Source}
		fields = append(fields, r.If...)
		if !matchesQuery(q.Text, fields...) {
			continue
		}
		if q.Antecedent != "" && !contains(r.If, q.Antecedent) {
			continue
		}
		if q.Consequent != "" && r.Then != q.Consequent {
			continue
		}
		cf := r.EffectiveCF()
		if q.CFMin != nil && cf < *q.CFMin {
			continue
		}
		if q.CFMax != nil && cf > *q.CFMax {
			continue
		}
		out = append(out, RuleMatch{ID: id, Rule: r})
	}

	less := func(i, j int) bool { return out[i].ID < out[j].ID }
	if q.SortBy == "cf" {
		less = func(i, j int) bool {
			return out[i].Rule.EffectiveCF() < out[j].Rule.EffectiveCF()
		}
	}
	if q.Desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}

// RulesForDisease returns all rules concluding the given disease.
func (kb *KnowledgeBase) RulesForDisease(diseaseID string) []RuleMatch {
	return kb.SearchRules(RuleQuery{Consequent: diseaseID})
}

// RulesUsingSymptom returns all rules with the given symptom among their
// antecedents.
func (kb *KnowledgeBase) RulesUsingSymptom(symptomID string) []RuleMatch {
	return kb.SearchRules(RuleQuery{Antecedent: symptomID})
}

// RelatedSymptoms returns the other symptoms that co-occur with symptomID
// in any rule, sorted. Used for "related symptoms" hints in the UI.
func (kb *KnowledgeBase) RelatedSymptoms(symptomID string) []string {
	seen := make(map[string]struct{})
	for _, r := range kb.Rules {
		if !contains(r.If, symptomID) {
			continue
		}
		for _, ant := range r.If {
			if ant != symptomID {
				seen[ant] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PossibleDiseases returns the consequents of every rule whose antecedents
// intersect the given symptom set, sorted. A cheap preview before running
// full inference.
func (kb *KnowledgeBase) PossibleDiseases(symptomIDs []string) []string {
	set := make(map[string]struct{}, len(symptomIDs))
	for _, id := range symptomIDs {
		set[id] = struct{}{}
	}
	seen := make(map[string]struct{})
	for _, r := range kb.Rules {
		for _, ant := range r.If {
			if _, ok := set[ant]; ok {
				if r.Then != "" {
					seen[r.Then] = struct{}{}
				}
				break
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func sortedRuleIDs(rules map[string]Rule) []string {
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
