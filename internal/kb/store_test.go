package kb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/testutil"
)

func openSampleStore(t *testing.T) *kb.Store {
	t.Helper()
	store, err := kb.Open(testutil.SampleKBDir(t))
	require.NoError(t, err)
	return store
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := openSampleStore(t)

	snap := store.KB()
	delete(snap.Rules, "R1")
	snap.Symptoms["s_injected"] = kb.Symptom{ID: "s_injected", Name: "Injected"}

	_, ok := store.GetRule("R1")
	assert.True(t, ok, "snapshot mutation must not affect the store")
	assert.NotContains(t, store.KB().Symptoms, "s_injected")
}

func TestStoreAddRule(t *testing.T) {
	store := openSampleStore(t)

	id := store.NextRuleID()
	assert.Equal(t, "R5", id)

	rule := kb.Rule{If: []string{"s_lethargy"}, Then: "d_ich", CF: 0.3}
	require.NoError(t, store.AddRule(id, rule))

	got, ok := store.GetRule(id)
	require.True(t, ok)
	assert.Equal(t, rule, got)

	// Persisted: a fresh store sees the new rule.
	reopened, err := kb.Open(store.Dir())
	require.NoError(t, err)
	_, ok = reopened.GetRule(id)
	assert.True(t, ok)
}

func TestStoreAddRuleValidation(t *testing.T) {
	store := openSampleStore(t)

	tests := []struct {
		name    string
		id      string
		rule    kb.Rule
		wantErr string
	}{
		{
			name:    "empty id",
			rule:    kb.Rule{If: []string{"s_lethargy"}, Then: "d_ich"},
			wantErr: "rule id must not be empty",
		},
		{
			name:    "duplicate id",
			id:      "R1",
			rule:    kb.Rule{If: []string{"s_lethargy"}, Then: "d_ich"},
			wantErr: "already exists",
		},
		{
			name:    "empty IF",
			id:      "R9",
			rule:    kb.Rule{Then: "d_ich"},
			wantErr: "at least one antecedent",
		},
		{
			name:    "unknown antecedent",
			id:      "R9",
			rule:    kb.Rule{If: []string{"s_made_up"}, Then: "d_ich"},
			wantErr: `unknown antecedent "s_made_up"`,
		},
		{
			name:    "dangling consequent",
			id:      "R9",
			rule:    kb.Rule{If: []string{"s_lethargy"}, Then: "d_made_up"},
			wantErr: "neither a known disease",
		},
		{
			name:    "cf out of range",
			id:      "R9",
			rule:    kb.Rule{If: []string{"s_lethargy"}, Then: "d_ich", CF: 1.2},
			wantErr: "out of range",
		},
		{
			name:    "self-referential",
			id:      "R9",
			rule:    kb.Rule{If: []string{"d_ich"}, Then: "d_ich"},
			wantErr: "equals its own consequent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AddRule(tt.id, tt.rule)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreEditRule(t *testing.T) {
	store := openSampleStore(t)

	rule, ok := store.GetRule("R2")
	require.True(t, ok)
	rule.CF = 0.9
	require.NoError(t, store.EditRule("R2", rule))

	got, _ := store.GetRule("R2")
	assert.Equal(t, 0.9, got.CF)

	err := store.EditRule("R99", rule)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStoreDeleteRule(t *testing.T) {
	store := openSampleStore(t)

	require.NoError(t, store.DeleteRule("R4"))
	_, ok := store.GetRule("R4")
	assert.False(t, ok)

	err := store.DeleteRule("R4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStoreRuleIDs(t *testing.T) {
	store := openSampleStore(t)
	assert.Equal(t, []string{"R1", "R2", "R3", "R4"}, store.RuleIDs())
}

func TestStoreReload(t *testing.T) {
	store := openSampleStore(t)

	// Another writer replaces the rule set on disk.
	other, err := kb.Open(store.Dir())
	require.NoError(t, err)
	require.NoError(t, other.DeleteRule("R1"))

	_, ok := store.GetRule("R1")
	assert.True(t, ok, "stale until reload")

	require.NoError(t, store.Reload())
	_, ok = store.GetRule("R1")
	assert.False(t, ok)
}

func TestStoreNextRuleIDFillsGaps(t *testing.T) {
	store := openSampleStore(t)
	require.NoError(t, store.DeleteRule("R2"))
	assert.Equal(t, "R2", store.NextRuleID())
}
