package engine

import (
	"fmt"

	"github.com/aquastack-labs/fishdoc/internal/kb"
)

// ForwardResult is the outcome of a forward-chaining run.
type ForwardResult struct {
	// FactsCF maps every known fact (initial and derived) to its final CF.
	FactsCF map[string]float64 `json:"facts_cf"`
	// UsedRules lists fired rules in firing order.
	UsedRules []string `json:"used_rules"`
	Trace     []Step   `json:"trace"`
	// Memory is the working memory after the run, for callers that want
	// fact provenance.
	Memory *WorkingMemory `json:"-"`
}

// Path returns the reasoning path string ("R1 -> R2").
func (r *ForwardResult) Path() string {
	return ReasoningPath(r.UsedRules)
}

// Forward runs data-driven inference: starting from the initial facts,
// rules whose antecedents are all known fire and assert their consequent,
// until no rule adds evidence or the step cap is reached. limit <= 0 uses
// the default cap max(50, 3*len(rules)).
func (e *Engine) Forward(rules map[string]kb.Rule, initialFacts map[string]float64, limit int) *ForwardResult {
	mem := NewWorkingMemory()
	clamped := make(map[string]float64, len(initialFacts))
	for id, cf := range initialFacts {
		clamped[id] = kb.Clamp01(cf)
	}
	mem.AddInitialFacts(clamped)

	maxSteps := limit
	if maxSteps <= 0 {
		maxSteps = 3 * len(rules)
		if maxSteps < 50 {
			maxSteps = 50
		}
	}

	order := ruleOrder(rules)
	var usedRules []string
	var trace []Step

	fired := true
	stepNo := 0
	for fired && stepNo < maxSteps {
		fired = false
		for _, rid := range order {
			rule := rules[rid]
			if len(rule.If) == 0 || rule.Then == "" {
				continue
			}
			if !mem.HasAll(rule.If, 0) {
				continue
			}

			antCFs := make([]float64, len(rule.If))
			for i, ant := range rule.If {
				antCFs[i] = mem.CF(ant)
			}
			proposed := kb.Clamp01(AntecedentCF(antCFs) * rule.EffectiveCF())

			before := mem.CF(rule.Then)
			after := CombineCF(before, proposed)
			if after-before <= minDelta {
				continue
			}

			factsBefore := mem.Facts()
			delta := mem.Add(rule.Then, proposed, "rule_"+rid, rule.If)
			fired = true
			stepNo++
			usedRules = append(usedRules, rid)

			trace = append(trace, Step{
				Step:        stepNo,
				Rule:        rid,
				MatchedIf:   rule.If,
				Derived:     rule.Then,
				CFBefore:    before,
				DeltaCF:     delta,
				CFAfter:     mem.CF(rule.Then),
				FactsBefore: withoutFact(factsBefore, rule.Then),
				FactsAfter:  mem.Facts(),
				Why:         rule.AskWhy,
				Source:      rule.Source,
			})

			e.logger.Debug("rule fired",
				"rule", rid,
				"derived", rule.Then,
				"cf", fmt.Sprintf("%.3f", mem.CF(rule.Then)),
			)

			if stepNo >= maxSteps {
				break
			}
		}
	}

	return &ForwardResult{
		FactsCF:   mem.FactsCF(),
		UsedRules: usedRules,
		Trace:     trace,
		Memory:    mem,
	}
}

// withoutFact returns facts with the given ID removed. The trace shows the
// state before a firing, and the derived fact may already have been present
// from an earlier rule.
func withoutFact(facts []string, id string) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		if f != id {
			out = append(out, f)
		}
	}
	return out
}
