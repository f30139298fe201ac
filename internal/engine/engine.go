package engine

import (
	"log/slog"
	"sort"

	"github.com/aquastack-labs/fishdoc/internal/kb"
)

// DefaultThreshold is the minimum CF a conclusion needs before the
// diagnosis pipeline commits to it.
const DefaultThreshold = 0.6

// Config holds engine construction options.
type Config struct {
	// Threshold gates diagnosis conclusions. Zero means DefaultThreshold.
	Threshold float64
	Logger    *slog.Logger
}

// Engine runs forward and backward chaining over a rule set.
type Engine struct {
	threshold float64
	logger    *slog.Logger
}

// New creates an engine from the config.
func New(cfg Config) *Engine {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{threshold: threshold, logger: logger}
}

// Threshold returns the conclusion threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// ruleOrder returns rule IDs in deterministic (sorted) order. The calculus
// is order-sensitive only in the trace, not in the final CFs, but
// reproducible runs make explanations and tests stable.
func ruleOrder(rules map[string]kb.Rule) []string {
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
