package engine

import (
	"sort"

	"github.com/aquastack-labs/fishdoc/internal/kb"
)

// BackwardResult is the outcome of a backward-chaining proof attempt.
type BackwardResult struct {
	Success   bool     `json:"success"`
	Goal      string   `json:"goal"`
	CF        float64  `json:"cf"`
	UsedRules []string `json:"used_rules"`
	Trace     []Step   `json:"trace"`
}

// Path returns the reasoning path string.
func (r *BackwardResult) Path() string {
	return ReasoningPath(r.UsedRules)
}

// Backward attempts to prove goal from the given facts, goal-driven. A goal
// already among the facts with positive CF succeeds immediately; otherwise
// every rule concluding the goal is tried, proving its antecedents
// recursively, and the strongest proof wins.
func (e *Engine) Backward(rules map[string]kb.Rule, facts map[string]float64, goal string) *BackwardResult {
	return e.prove(rules, facts, goal, make(map[string]struct{}))
}

func (e *Engine) prove(rules map[string]kb.Rule, facts map[string]float64, goal string, visited map[string]struct{}) *BackwardResult {
	if cf, ok := facts[goal]; ok && cf > 0 {
		return &BackwardResult{
			Success: true,
			Goal:    goal,
			CF:      kb.Clamp01(cf),
		}
	}

	best := &BackwardResult{Goal: goal}

	// Cycle guard: a goal already on the proof stack cannot be re-proved.
	if _, seen := visited[goal]; seen {
		return best
	}
	visited[goal] = struct{}{}
	defer delete(visited, goal)

	for _, rid := range ruleOrder(rules) {
		rule := rules[rid]
		if rule.Then != goal || len(rule.If) == 0 {
			continue
		}

		antCFs := make([]float64, 0, len(rule.If))
		var localUsed []string
		var localTrace []Step
		proved := true

		for _, ant := range rule.If {
			if cf, ok := facts[ant]; ok && cf > 0 {
				antCFs = append(antCFs, cf)
				continue
			}
			sub := e.prove(rules, facts, ant, visited)
			if !sub.Success {
				proved = false
				break
			}
			antCFs = append(antCFs, sub.CF)
			localUsed = append(localUsed, sub.UsedRules...)
			localTrace = append(localTrace, sub.Trace...)
		}
		if !proved {
			continue
		}

		goalCF := kb.Clamp01(AntecedentCF(antCFs) * rule.EffectiveCF())
		if goalCF <= best.CF {
			continue
		}

		factIDs := factKeys(facts)
		step := Step{
			Step:        len(localTrace) + 1,
			Rule:        rid,
			MatchedIf:   rule.If,
			Derived:     goal,
			CFBefore:    0,
			DeltaCF:     goalCF,
			CFAfter:     goalCF,
			FactsBefore: factIDs,
			FactsAfter:  insertSorted(factIDs, goal),
			Why:         rule.AskWhy,
			Source:      rule.Source,
		}
		best = &BackwardResult{
			Success:   true,
			Goal:      goal,
			CF:        goalCF,
			UsedRules: append(localUsed, rid),
			Trace:     append(localTrace, step),
		}
	}

	return best
}

func factKeys(facts map[string]float64) []string {
	out := make([]string, 0, len(facts))
	for id := range facts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func insertSorted(sorted []string, v string) []string {
	for _, s := range sorted {
		if s == v {
			return sorted
		}
	}
	out := append(append([]string{}, sorted...), v)
	sort.Strings(out)
	return out
}
