package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/testutil"
)

func TestBackwardProvesGoal(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Backward(base.Rules, map[string]float64{
		"s_white_spots": 0.9,
		"s_scratching":  0.7,
	}, "d_ich")

	require.True(t, res.Success)
	assert.Equal(t, "d_ich", res.Goal)
	assert.InDelta(t, 0.56, res.CF, 0.001)
	assert.Equal(t, []string{"R1"}, res.UsedRules)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, "R1", res.Trace[0].Rule)
	assert.Equal(t, "d_ich", res.Trace[0].Derived)
}

func TestBackwardGoalAlreadyKnown(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Backward(base.Rules, map[string]float64{"d_ich": 0.7}, "d_ich")

	require.True(t, res.Success)
	assert.Equal(t, 0.7, res.CF)
	assert.Empty(t, res.UsedRules)
	assert.Empty(t, res.Trace)
}

func TestBackwardFailure(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	res := e.Backward(base.Rules, map[string]float64{"s_white_spots": 0.9}, "d_ich")

	assert.False(t, res.Success)
	assert.Equal(t, 0.0, res.CF)
	assert.Empty(t, res.UsedRules)
}

func TestBackwardPicksStrongestProof(t *testing.T) {
	e := newTestEngine(t)
	base := testutil.SampleKB()

	// Both R2 (direct) and R4 (through the derived stress fact) conclude
	// fin rot; the direct proof is stronger.
	res := e.Backward(base.Rules, map[string]float64{
		"s_loss_appetite": 0.4,
		"s_lethargy":      0.5,
		"s_frayed_fins":   0.8,
	}, "d_fin_rot")

	require.True(t, res.Success)
	assert.InDelta(t, 0.6, res.CF, 0.001)
	assert.Equal(t, []string{"R2"}, res.UsedRules)
}

func TestBackwardChainedProof(t *testing.T) {
	e := newTestEngine(t)
	rules := map[string]kb.Rule{
		"R1": {If: []string{"g1"}, Then: "mid", CF: 0.9},
		"R2": {If: []string{"mid"}, Then: "goal", CF: 0.8},
	}

	res := e.Backward(rules, map[string]float64{"g1": 1.0}, "goal")

	require.True(t, res.Success)
	assert.InDelta(t, 0.72, res.CF, 0.001)
	assert.Equal(t, []string{"R1", "R2"}, res.UsedRules)
	require.Len(t, res.Trace, 2)
	assert.Equal(t, "mid", res.Trace[0].Derived)
	assert.Equal(t, "goal", res.Trace[1].Derived)
}

func TestBackwardCycleGuard(t *testing.T) {
	e := newTestEngine(t)
	rules := map[string]kb.Rule{
		"R1": {If: []string{"b"}, Then: "a", CF: 0.9},
		"R2": {If: []string{"a"}, Then: "b", CF: 0.9},
	}

	res := e.Backward(rules, map[string]float64{}, "a")

	assert.False(t, res.Success)
}
