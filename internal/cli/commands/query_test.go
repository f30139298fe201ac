package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/cli/config"
	"github.com/aquastack-labs/fishdoc/internal/state"
)

// testConsultationID is the fixed ID used by setupHistoryDB.
const testConsultationID = "11111111-2222-3333-4444-555555555555"

// setupHistoryDB creates a history database with one saved consultation
// and points the environment at it.
func setupHistoryDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.SaveConsultation(&state.Consultation{
		ID:          testConsultationID,
		PatientName: "Bubbles",
		Species:     "guppy",
		Symptoms: []state.ReportedSymptom{
			{SymptomID: "s_frayed_fins", Name: "Frayed or ragged fins", CF: 1.0},
		},
		DiseaseID:     "d_fin_rot",
		DiseaseName:   "Fin rot",
		CF:            0.74,
		Method:        "forward",
		UsedRules:     []string{"R2"},
		ReasoningPath: "R2",
	}))

	config.ResetConfig()
	t.Setenv("FISHDOC_HISTORY_PATH", path)
	return path
}

func runQueryTest(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewQueryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestQueryCommand_Select(t *testing.T) {
	setupHistoryDB(t)

	out, err := runQueryTest(t, "SELECT disease_name, cf FROM consultations")
	require.NoError(t, err)

	assert.Contains(t, out, "disease_name")
	assert.Contains(t, out, "Fin rot")
}

func TestQueryCommand_SelectJSON(t *testing.T) {
	setupHistoryDB(t)

	out, err := runQueryTest(t, "--format", "json",
		"SELECT species FROM consultations")
	require.NoError(t, err)

	assert.Contains(t, out, `"species"`)
	assert.Contains(t, out, "guppy")
}

func TestQueryCommand_Tables(t *testing.T) {
	setupHistoryDB(t)

	out, err := runQueryTest(t, "tables")
	require.NoError(t, err)

	for _, table := range []string{"consultations", "consultation_symptoms", "trace_steps", "rule_usage"} {
		assert.Contains(t, out, table)
	}
	assert.NotContains(t, out, "goose_db_version")
}

func TestQueryCommand_Schema(t *testing.T) {
	setupHistoryDB(t)

	out, err := runQueryTest(t, "schema", "consultations")
	require.NoError(t, err)

	assert.Contains(t, out, "disease_name")
	assert.Contains(t, out, "created_at")
}

func TestQueryCommand_MissingDatabase(t *testing.T) {
	config.ResetConfig()
	t.Setenv("FISHDOC_HISTORY_PATH", filepath.Join(t.TempDir(), "nope.db"))

	_, err := runQueryTest(t, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history database not found")
}

func TestQueryCommand_PostgresDriverRejected(t *testing.T) {
	config.ResetConfig()
	t.Setenv("FISHDOC_HISTORY_DRIVER", "postgres")
	t.Setenv("FISHDOC_HISTORY_DSN", "postgres://localhost/fishdoc")

	_, err := runQueryTest(t, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite history backend only")
}
