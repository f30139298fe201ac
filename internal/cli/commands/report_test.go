package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/testutil"
)

func runReportTest(t *testing.T, args ...string) (string, error) {
	t.Helper()
	setupHistoryDB(t)
	t.Setenv("FISHDOC_DATABASE_DIR", testutil.SampleKBDir(t))
	t.Setenv("FISHDOC_REPORTS_DIR", t.TempDir())

	cmd := NewReportCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestReportCommand_Stdout(t *testing.T) {
	out, err := runReportTest(t, testConsultationID, "--stdout")
	require.NoError(t, err)

	assert.Contains(t, out, "CONSULTATION REPORT")
	assert.Contains(t, out, "FIN ROT")
	assert.Contains(t, out, "Bubbles")
}

func TestReportCommand_MarkdownStdout(t *testing.T) {
	out, err := runReportTest(t, testConsultationID, "--stdout", "--format", "md")
	require.NoError(t, err)

	assert.Contains(t, out, "Fin rot")
	assert.Contains(t, out, "Frayed or ragged fins")
}

func TestReportCommand_WritesFile(t *testing.T) {
	reportsDir := t.TempDir()
	setupHistoryDB(t)
	t.Setenv("FISHDOC_DATABASE_DIR", testutil.SampleKBDir(t))
	t.Setenv("FISHDOC_REPORTS_DIR", reportsDir)

	cmd := NewReportCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{testConsultationID})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "Report written to")

	entries, err := os.ReadDir(reportsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), ".txt")
}

func TestReportCommand_PrefixLookup(t *testing.T) {
	out, err := runReportTest(t, testConsultationID[:8], "--stdout")
	require.NoError(t, err)

	assert.Contains(t, out, "CONSULTATION REPORT")
}

func TestReportCommand_UnknownConsultation(t *testing.T) {
	_, err := runReportTest(t, "ffffffff", "--stdout")
	require.Error(t, err)
}

func TestReportCommand_BadFormat(t *testing.T) {
	_, err := runReportTest(t, testConsultationID, "--stdout", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}
