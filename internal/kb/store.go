package kb

import (
	"fmt"
	"sort"
	"sync"
)

// Store is the mutable view over a knowledge base used by the knowledge
// acquisition surfaces (CLI and web UI). Mutations are validated, applied
// in memory, and persisted back to the database directory.
type Store struct {
	mu     sync.RWMutex
	loader *Loader
	kb     *KnowledgeBase
}

// Open loads the knowledge base from dir and returns a store over it.
func Open(dir string) (*Store, error) {
	loader := NewLoader(dir)
	base, err := loader.Load()
	if err != nil {
		return nil, err
	}
	return &Store{loader: loader, kb: base}, nil
}

// KB returns a snapshot of the current knowledge base. The snapshot shares
// no map state with the store, so callers may iterate without holding locks.
func (s *Store) KB() *KnowledgeBase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kb.clone()
}

// Reload re-reads the knowledge base from disk, replacing the in-memory
// state. Used by the UI file watcher.
func (s *Store) Reload() error {
	base, err := s.loader.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.kb = base
	s.mu.Unlock()
	return nil
}

// Dir returns the database directory backing the store.
func (s *Store) Dir() string {
	return s.loader.Dir()
}

// GetRule returns a rule by ID.
func (s *Store) GetRule(id string) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.kb.Rules[id]
	return r, ok
}

// RuleIDs returns all rule IDs in sorted order.
func (s *Store) RuleIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.kb.Rules))
	for id := range s.kb.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddRule validates and adds a new rule, then persists the rule set.
func (s *Store) AddRule(id string, rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return fmt.Errorf("rule id must not be empty")
	}
	if _, exists := s.kb.Rules[id]; exists {
		return fmt.Errorf("rule %s already exists", id)
	}
	if err := s.kb.validateRule(id, rule); err != nil {
		return err
	}

	s.kb.Rules[id] = rule
	return s.persistRulesLocked()
}

// EditRule validates and replaces an existing rule, then persists the
// rule set.
func (s *Store) EditRule(id string, rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.kb.Rules[id]; !exists {
		return fmt.Errorf("rule %s not found", id)
	}
	if err := s.kb.validateRule(id, rule); err != nil {
		return err
	}

	s.kb.Rules[id] = rule
	return s.persistRulesLocked()
}

// DeleteRule removes a rule and persists the rule set.
func (s *Store) DeleteRule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.kb.Rules[id]; !exists {
		return fmt.Errorf("rule %s not found", id)
	}
	delete(s.kb.Rules, id)
	return s.persistRulesLocked()
}

// NextRuleID proposes the next free rule ID of the form R<n>.
func (s *Store) NextRuleID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for n := 1; ; n++ {
		id := fmt.Sprintf("R%d", n)
		if _, exists := s.kb.Rules[id]; !exists {
			return id
		}
	}
}

// persistRulesLocked writes the rule set to disk. Restores nothing on
// failure; the caller sees the error and the in-memory state keeps the
// mutation, matching a subsequent retry of the save.
func (s *Store) persistRulesLocked() error {
	return s.loader.SaveRules(s.kb.Rules)
}

func (kb *KnowledgeBase) clone() *KnowledgeBase {
	out := NewKnowledgeBase()
	for id, s := range kb.Symptoms {
		out.Symptoms[id] = s
	}
	for id, d := range kb.Diseases {
		out.Diseases[id] = d
	}
	for id, r := range kb.Rules {
		out.Rules[id] = r
	}
	return out
}
