package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/kb"
)

// SampleKB returns a small freshwater-fish knowledge base covering the
// common test scenarios: a direct rule, a two-antecedent rule and a chained
// rule through an intermediate fact.
func SampleKB() *kb.KnowledgeBase {
	base := kb.NewKnowledgeBase()

	base.Symptoms = map[string]kb.Symptom{
		"s_white_spots": {
			ID:          "s_white_spots",
			Name:        "White spots on skin",
			Description: "Small white cysts on skin, fins and gills",
			Question:    "Do you see small white spots on the fish's body?",
			Species:     []string{"goldfish", "betta", "guppy"},
			Weight:      0.9,
		},
		"s_scratching": {
			ID:       "s_scratching",
			Name:     "Scratching against objects",
			Question: "Is the fish rubbing itself against tank objects?",
			Species:  []string{"goldfish", "betta", "guppy"},
			Weight:   0.7,
		},
		"s_frayed_fins": {
			ID:       "s_frayed_fins",
			Name:     "Frayed or ragged fins",
			Question: "Are the fin edges frayed, ragged or discolored?",
			Species:  []string{"betta", "guppy"},
			Weight:   0.8,
		},
		"s_loss_appetite": {
			ID:       "s_loss_appetite",
			Name:     "Loss of appetite",
			Question: "Has the fish stopped eating?",
			Weight:   0.4,
		},
		"s_lethargy": {
			ID:       "s_lethargy",
			Name:     "Lethargy",
			Question: "Is the fish unusually inactive?",
			Weight:   0.5,
		},
	}

	base.Diseases = map[string]kb.Disease{
		"d_ich": {
			ID:          "d_ich",
			Name:        "Ich (white spot disease)",
			Description: "Infestation by the parasite Ichthyophthirius multifiliis",
			Cause:       "Parasite introduced by new fish or plants",
			Treatments:  []string{"Raise water temperature to 28C", "Dose malachite green"},
			Prevention:  []string{"Quarantine new fish", "Keep water quality stable"},
			Species:     []string{"goldfish", "betta", "guppy"},
		},
		"d_fin_rot": {
			ID:         "d_fin_rot",
			Name:       "Fin rot",
			Cause:      "Bacterial infection, usually after fin damage or poor water",
			Treatments: []string{"Partial water changes", "Antibacterial treatment"},
			Prevention: []string{"Avoid overcrowding", "Test water weekly"},
			Species:    []string{"betta", "guppy"},
		},
	}

	base.Rules = map[string]kb.Rule{
		"R1": {
			If:             []string{"s_white_spots", "s_scratching"},
			Then:           "d_ich",
			CF:             0.8,
			AskWhy:         "White spots with flashing behavior are the classic ich picture",
			Recommendation: "Raise the temperature gradually and treat the whole tank",
			Source:         "Noga, Fish Disease: Diagnosis and Treatment",
		},
		"R2": {
			If:   []string{"s_frayed_fins"},
			Then: "d_fin_rot",
			CF:   0.75,
		},
		"R3": {
			If:   []string{"s_loss_appetite", "s_lethargy"},
			Then: "f_stressed",
			CF:   0.6,
		},
		"R4": {
			If:   []string{"f_stressed", "s_frayed_fins"},
			Then: "d_fin_rot",
			CF:   0.5,
		},
	}

	return base
}

// WriteKBDir writes the knowledge base to dir as the three JSON files the
// loader expects and returns dir.
func WriteKBDir(t testing.TB, dir string, base *kb.KnowledgeBase) string {
	t.Helper()

	symptoms := make([]kb.Symptom, 0, len(base.Symptoms))
	for _, s := range base.Symptoms {
		symptoms = append(symptoms, s)
	}
	diseases := make([]kb.Disease, 0, len(base.Diseases))
	for _, d := range base.Diseases {
		diseases = append(diseases, d)
	}

	writeJSON(t, filepath.Join(dir, kb.SymptomsFile), symptoms)
	writeJSON(t, filepath.Join(dir, kb.DiseasesFile), diseases)
	writeJSON(t, filepath.Join(dir, kb.RulesFile), base.Rules)
	return dir
}

// SampleKBDir writes SampleKB to a temp dir and returns the dir.
func SampleKBDir(t testing.TB) string {
	t.Helper()
	return WriteKBDir(t, t.TempDir(), SampleKB())
}

func writeJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "    ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
