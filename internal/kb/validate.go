package kb

import (
	"fmt"

	"go.uber.org/multierr"
)

// validateRule checks a single rule against the knowledge base. Antecedents
// must be known symptoms or facts derivable from other rules; the consequent
// must be a known disease or feed another rule's antecedents (intermediate
// fact).
func (kb *KnowledgeBase) validateRule(id string, rule Rule) error {
	if len(rule.If) == 0 {
		return fmt.Errorf("rule %s: IF must list at least one antecedent", id)
	}
	if rule.Then == "" {
		return fmt.Errorf("rule %s: THEN must not be empty", id)
	}
	if rule.CF < 0 || rule.CF > 1 {
		return fmt.Errorf("rule %s: CF %v out of range [0,1]", id, rule.CF)
	}

	derivable := kb.derivableFacts()
	// The rule being validated may not be in kb.Rules yet (add case).
	derivable[rule.Then] = struct{}{}

	seen := make(map[string]struct{}, len(rule.If))
	for _, ant := range rule.If {
		if ant == "" {
			return fmt.Errorf("rule %s: empty antecedent", id)
		}
		if _, dup := seen[ant]; dup {
			return fmt.Errorf("rule %s: duplicate antecedent %q", id, ant)
		}
		seen[ant] = struct{}{}
		if ant == rule.Then {
			return fmt.Errorf("rule %s: antecedent %q equals its own consequent", id, ant)
		}
		if _, ok := kb.Symptoms[ant]; ok {
			continue
		}
		if _, ok := derivable[ant]; ok {
			continue
		}
		return fmt.Errorf("rule %s: unknown antecedent %q", id, ant)
	}

	if _, ok := kb.Diseases[rule.Then]; !ok {
		if !kb.feedsAnotherRule(id, rule.Then) {
			return fmt.Errorf("rule %s: consequent %q is neither a known disease nor used by another rule", id, rule.Then)
		}
	}
	return nil
}

// Validate checks the whole knowledge base and returns all problems found,
// combined into one error.
func (kb *KnowledgeBase) Validate() error {
	var errs error
	for _, id := range sortedRuleIDs(kb.Rules) {
		if err := kb.validateRule(id, kb.Rules[id]); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for id, s := range kb.Symptoms {
		if s.Weight < 0 || s.Weight > 1 {
			errs = multierr.Append(errs, fmt.Errorf("symptom %s: weight %v out of range [0,1]", id, s.Weight))
		}
	}
	return errs
}

// derivableFacts returns the set of facts any rule can derive.
func (kb *KnowledgeBase) derivableFacts() map[string]struct{} {
	out := make(map[string]struct{}, len(kb.Rules))
	for _, r := range kb.Rules {
		out[r.Then] = struct{}{}
	}
	return out
}

// feedsAnotherRule reports whether fact appears as an antecedent of any
// rule other than exclude.
func (kb *KnowledgeBase) feedsAnotherRule(exclude, fact string) bool {
	for id, r := range kb.Rules {
		if id == exclude {
			continue
		}
		for _, ant := range r.If {
			if ant == fact {
				return true
			}
		}
	}
	return false
}
