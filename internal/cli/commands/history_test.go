package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/testutil"
)

func runHistoryTest(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewHistoryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryCommand_List(t *testing.T) {
	setupHistoryDB(t)

	out, err := runHistoryTest(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "Fin rot (74%)")
	assert.Contains(t, out, "guppy")
	assert.Contains(t, out, "(1 consultations)")
}

func TestHistoryCommand_ListEmpty(t *testing.T) {
	setupHistoryDB(t)

	out, err := runHistoryTest(t, "list", "--species", "goldfish")
	require.NoError(t, err)
	assert.Contains(t, out, "No consultations found.")
}

func TestHistoryCommand_ListInvalidDate(t *testing.T) {
	setupHistoryDB(t)

	_, err := runHistoryTest(t, "list", "--from", "March 14th")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --from date")
}

func TestHistoryCommand_Show(t *testing.T) {
	setupHistoryDB(t)

	out, err := runHistoryTest(t, "show", testConsultationID)
	require.NoError(t, err)

	assert.Contains(t, out, "Diagnosis: Fin rot")
	assert.Contains(t, out, "Bubbles")
	assert.Contains(t, out, "Frayed or ragged fins")
	assert.Contains(t, out, "Reasoning path: R2")
}

func TestHistoryCommand_ShowUnknown(t *testing.T) {
	setupHistoryDB(t)

	_, err := runHistoryTest(t, "show", "deadbeef")
	require.Error(t, err)
}

func TestHistoryCommand_Stats(t *testing.T) {
	setupHistoryDB(t)
	t.Setenv("FISHDOC_DATABASE_DIR", testutil.SampleKBDir(t))

	out, err := runHistoryTest(t, "stats")
	require.NoError(t, err)

	assert.Contains(t, out, "Total consultations: 1")
	assert.Contains(t, out, "Conclusive:          1")
	// Rule usage carries the concluded disease's name from the KB.
	assert.Contains(t, out, "R2 (Fin rot)")
}

func TestHistoryCommand_StatsWithoutKB(t *testing.T) {
	setupHistoryDB(t)

	out, err := runHistoryTest(t, "stats")
	require.NoError(t, err)

	// No knowledge base configured: usage falls back to bare rule IDs.
	assert.Contains(t, out, "R2")
	assert.NotContains(t, out, "(Fin rot)")
}

func TestHistoryCommand_ExportCSV(t *testing.T) {
	setupHistoryDB(t)

	out, err := runHistoryTest(t, "export")
	require.NoError(t, err)

	assert.Contains(t, out, "id,created_at,species,disease_id,disease_name")
	assert.Contains(t, out, "Fin rot")
}

func TestHistoryCommand_Delete(t *testing.T) {
	setupHistoryDB(t)

	out, err := runHistoryTest(t, "delete", testConsultationID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted consultation")

	remaining, err := runHistoryTest(t, "list")
	require.NoError(t, err)
	assert.Contains(t, remaining, "No consultations found.")
}
