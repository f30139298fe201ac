package kb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/testutil"
)

func TestValidateCleanKB(t *testing.T) {
	assert.NoError(t, testutil.SampleKB().Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	base := testutil.SampleKB()
	base.Rules["R8"] = kb.Rule{If: []string{"s_ghost"}, Then: "d_ich", CF: 0.5}
	base.Rules["R9"] = kb.Rule{If: []string{"s_lethargy"}, Then: "d_nowhere", CF: 0.5}
	base.Symptoms["s_heavy"] = kb.Symptom{ID: "s_heavy", Name: "Heavy", Weight: 1.5}

	err := base.Validate()
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 3)
	assert.Contains(t, err.Error(), `unknown antecedent "s_ghost"`)
	assert.Contains(t, err.Error(), `consequent "d_nowhere"`)
	assert.Contains(t, err.Error(), "weight 1.5 out of range")
}

func TestValidateIntermediateFactsAllowed(t *testing.T) {
	// f_stressed is not a disease but feeds R4; that chain is valid.
	base := testutil.SampleKB()
	require.NoError(t, base.Validate())

	// Removing the consumer orphans the intermediate fact.
	delete(base.Rules, "R4")
	err := base.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `consequent "f_stressed"`)
}
