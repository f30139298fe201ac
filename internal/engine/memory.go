package engine

import (
	"sort"
	"time"
)

// Fact sources recorded in working memory.
const (
	SourceUserInput = "user_input"
	SourceInference = "inference"
)

// FactEntry is one revision of a fact's CF, kept for audit and debugging.
type FactEntry struct {
	FactID      string
	CF          float64
	Source      string // SourceUserInput or "rule_<id>"
	Timestamp   time.Time
	DerivedFrom []string
}

// WorkingMemory holds the facts known during one inference run: initial
// user input plus everything derived, with per-fact revision history.
// It is not safe for concurrent use; each inference run owns its own.
type WorkingMemory struct {
	cfs     map[string]float64
	sources map[string]string
	history map[string][]FactEntry
}

// NewWorkingMemory returns an empty working memory.
func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{
		cfs:     make(map[string]float64),
		sources: make(map[string]string),
		history: make(map[string][]FactEntry),
	}
}

// AddInitialFacts seeds the memory with user-supplied facts.
func (m *WorkingMemory) AddInitialFacts(facts map[string]float64) {
	for _, id := range sortedKeys(facts) {
		m.Add(id, facts[id], SourceUserInput, nil)
	}
}

// Add records new evidence for a fact, combining with any existing CF.
// Returns the CF delta.
func (m *WorkingMemory) Add(factID string, cf float64, source string, derivedFrom []string) float64 {
	old := m.cfs[factID]
	combined := CombineCF(old, cf)
	delta := combined - old

	m.cfs[factID] = combined
	m.sources[factID] = source
	m.history[factID] = append(m.history[factID], FactEntry{
		FactID:      factID,
		CF:          combined,
		Source:      source,
		Timestamp:   time.Now(),
		DerivedFrom: derivedFrom,
	})
	return delta
}

// CF returns the fact's CF, or 0 if unknown.
func (m *WorkingMemory) CF(factID string) float64 {
	return m.cfs[factID]
}

// Has reports whether the fact is known with CF strictly above minCF.
func (m *WorkingMemory) Has(factID string, minCF float64) bool {
	return m.cfs[factID] > minCF
}

// HasAll reports whether every fact is known with CF strictly above minCF.
func (m *WorkingMemory) HasAll(factIDs []string, minCF float64) bool {
	for _, id := range factIDs {
		if !m.Has(id, minCF) {
			return false
		}
	}
	return true
}

// Facts returns the sorted IDs of all known facts.
func (m *WorkingMemory) Facts() []string {
	return sortedKeys(m.cfs)
}

// FactsCF returns a copy of the fact CF map.
func (m *WorkingMemory) FactsCF() map[string]float64 {
	out := make(map[string]float64, len(m.cfs))
	for id, cf := range m.cfs {
		out[id] = cf
	}
	return out
}

// AboveThreshold returns the facts whose CF is at least threshold.
func (m *WorkingMemory) AboveThreshold(threshold float64) map[string]float64 {
	out := make(map[string]float64)
	for id, cf := range m.cfs {
		if cf >= threshold {
			out[id] = cf
		}
	}
	return out
}

// History returns the revision history of a fact, oldest first.
func (m *WorkingMemory) History(factID string) []FactEntry {
	return m.history[factID]
}

// Source returns the most recent source of a fact.
func (m *WorkingMemory) Source(factID string) string {
	return m.sources[factID]
}

// Len returns the number of known facts.
func (m *WorkingMemory) Len() int {
	return len(m.cfs)
}

// Clear resets the memory.
func (m *WorkingMemory) Clear() {
	m.cfs = make(map[string]float64)
	m.sources = make(map[string]string)
	m.history = make(map[string][]FactEntry)
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
