// Package engine implements the rule-based inference engine: forward and
// backward chaining over IF/THEN rules with a MYCIN-style certainty factor
// calculus.
package engine

import "github.com/aquastack-labs/fishdoc/internal/kb"

// minDelta is the smallest CF increase that counts as a rule firing.
// Refiring a rule that no longer adds evidence would loop forever.
const minDelta = 1e-6

// CombineCF merges two pieces of positive evidence for the same fact:
// cf = old + new*(1-old). Inputs and output are clamped to [0,1].
func CombineCF(old, new float64) float64 {
	old = kb.Clamp01(old)
	new = kb.Clamp01(new)
	return kb.Clamp01(old + new*(1.0-old))
}

// AntecedentCF aggregates the CFs of a rule's antecedents. Conjunctive
// semantics: every condition must hold, so the weakest one bounds the
// result.
func AntecedentCF(cfs []float64) float64 {
	if len(cfs) == 0 {
		return 0
	}
	min := cfs[0]
	for _, cf := range cfs[1:] {
		if cf < min {
			min = cf
		}
	}
	return kb.Clamp01(min)
}
