package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/testutil"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Config{Logger: testutil.NewTestLogger(t)})
}

func TestForwardSingleRule(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Forward(base.Rules, map[string]float64{
		"s_white_spots": 0.9,
		"s_scratching":  0.7,
	}, 1)

	require.Len(t, res.Trace, 1)
	step := res.Trace[0]
	assert.Equal(t, 1, step.Step)
	assert.Equal(t, "R1", step.Rule)
	assert.Equal(t, "d_ich", step.Derived)
	assert.Equal(t, 0.0, step.CFBefore)
	// min(0.9, 0.7) * 0.8
	assert.InDelta(t, 0.56, step.DeltaCF, 0.001)
	assert.InDelta(t, 0.56, step.CFAfter, 0.001)
	assert.Equal(t, []string{"s_scratching", "s_white_spots"}, step.FactsBefore)
	assert.Contains(t, step.FactsAfter, "d_ich")

	assert.Equal(t, []string{"R1"}, res.UsedRules)
	assert.Equal(t, "R1", res.Path())
	assert.InDelta(t, 0.56, res.FactsCF["d_ich"], 0.001)
}

func TestForwardChainedRules(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Forward(base.Rules, map[string]float64{
		"s_loss_appetite": 0.4,
		"s_lethargy":      0.5,
		"s_frayed_fins":   0.8,
	}, 3)

	// R2 asserts d_fin_rot, R3 derives the intermediate stress fact, R4
	// reinforces d_fin_rot through it.
	assert.Equal(t, []string{"R2", "R3", "R4"}, res.UsedRules)
	assert.InDelta(t, 0.6, res.Trace[0].CFAfter, 0.001)
	assert.InDelta(t, 0.24, res.FactsCF["f_stressed"], 0.001)
	// 0.6 + 0.12*(1-0.6)
	assert.InDelta(t, 0.648, res.FactsCF["d_fin_rot"], 0.001)
	assert.Equal(t, "rule_R4", res.Memory.Source("d_fin_rot"))
}

func TestForwardEvidenceAccumulates(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Forward(base.Rules, map[string]float64{
		"s_white_spots": 0.9,
		"s_scratching":  0.7,
	}, 0)

	// With no step limit the rule keeps reinforcing its conclusion until
	// the evidence gain falls below the firing delta.
	require.NotEmpty(t, res.UsedRules)
	for _, rid := range res.UsedRules {
		assert.Equal(t, "R1", rid)
	}
	assert.GreaterOrEqual(t, res.FactsCF["d_ich"], 0.56)
	assert.LessOrEqual(t, res.FactsCF["d_ich"], 1.0)

	last := res.Trace[len(res.Trace)-1]
	assert.Greater(t, last.DeltaCF, 0.0)
}

func TestForwardStepLimit(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Forward(base.Rules, map[string]float64{
		"s_white_spots": 0.9,
		"s_scratching":  0.7,
	}, 2)

	assert.Len(t, res.Trace, 2)
	assert.Equal(t, []string{"R1", "R1"}, res.UsedRules)
}

func TestForwardNoMatch(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Forward(base.Rules, map[string]float64{"s_lethargy": 0.9}, 0)

	assert.Empty(t, res.UsedRules)
	assert.Empty(t, res.Trace)
	assert.Equal(t, map[string]float64{"s_lethargy": 0.9}, res.FactsCF)
}

func TestForwardEmptyInputs(t *testing.T) {
	e := newTestEngine(t)

	res := e.Forward(nil, nil, 0)
	assert.Empty(t, res.FactsCF)
	assert.Empty(t, res.Trace)

	res = e.Forward(testutil.SampleKB().Rules, nil, 0)
	assert.Empty(t, res.UsedRules)
}

func TestForwardClampsInitialFacts(t *testing.T) {
	e := newTestEngine(t)

	res := e.Forward(nil, map[string]float64{"a": 1.7, "b": -0.2}, 0)
	assert.Equal(t, 1.0, res.FactsCF["a"])
	assert.Equal(t, 0.0, res.FactsCF["b"])
}
