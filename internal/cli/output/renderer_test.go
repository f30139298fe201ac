package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	var out, errOut bytes.Buffer

	r := NewRenderer(&out, &errOut, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode(), "auto falls back to markdown when piped")

	r = NewRenderer(&out, &errOut, ModeText)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r = NewRenderer(&out, &errOut, Mode("bogus"))
	assert.Equal(t, ModeMarkdown, r.EffectiveMode(), "unknown mode behaves like auto")
}

func TestHeader(t *testing.T) {
	var out, errOut bytes.Buffer

	r := NewRenderer(&out, &errOut, ModeMarkdown)
	r.Header(2, "Diagnosis")
	assert.Equal(t, "## Diagnosis\n\n", out.String())

	out.Reset()
	r = NewRenderer(&out, &errOut, ModeText)
	r.Header(1, "Diagnosis")
	assert.Contains(t, out.String(), "Diagnosis\n=========\n")
}

func TestStdoutStderrSplit(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	r.Println("result")
	r.Warning("low confidence")
	r.Error("boom")

	assert.Contains(t, out.String(), "result")
	assert.NotContains(t, out.String(), "boom")
	assert.Contains(t, errOut.String(), "! low confidence")
	assert.Contains(t, errOut.String(), "✗ boom")
}

func TestJSON(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeJSON)

	require.NoError(t, r.JSON(map[string]float64{"cf": 0.87}))
	assert.JSONEq(t, `{"cf": 0.87}`, out.String())
}

func TestTable(t *testing.T) {
	var out, errOut bytes.Buffer

	r := NewRenderer(&out, &errOut, ModeText)
	r.Table([]string{"ID", "CF"}, [][]string{{"d_ich", "0.87"}})
	assert.Contains(t, out.String(), "d_ich")
	assert.Contains(t, out.String(), "│", "text mode uses box drawing")

	out.Reset()
	r = NewRenderer(&out, &errOut, ModeMarkdown)
	r.Table([]string{"ID", "CF"}, [][]string{{"d_ich", "0.87"}})
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		assert.True(t, strings.HasPrefix(line, "|"), "markdown table rows start with a pipe: %q", line)
	}
}

func TestStylesPlainWhenPiped(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	r.Println(r.Styles().Bold.Render("plain"))
	assert.Equal(t, "plain\n", out.String(), "no ANSI escapes for non-TTY writers")
}
