package tui

import (
	"bytes"
	"context"
	"testing"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	res, err := codeflow.New().Execute(context.Background(), domain.Source{
		Code: "let s = \"a|b\";\nprint(s);\nconst c = 1;\nc = 2;",
	})
	require.NoError(t, err)

	md := Report("main.js", res)
	assert.Contains(t, md, "# main.js")
	assert.Contains(t, md, "| 1 | - | start |")
	assert.Contains(t, md, `a\|b`, "pipes are escaped in table cells")
	assert.Contains(t, md, "## Output\n\n```\na|b\n```")
	assert.Contains(t, md, "## Error")
}

func TestReport_StaticNote(t *testing.T) {
	res, err := codeflow.New().Execute(context.Background(), domain.Source{Code: "x = 1\n", Language: "python"})
	require.NoError(t, err)

	md := Report("main.py", res)
	assert.Contains(t, md, "> "+res.Note)
	assert.NotContains(t, md, "## Output")
	assert.NotContains(t, md, "## Error")
}

func TestRenderer(t *testing.T) {
	render, err := NewRenderer(40)
	require.NoError(t, err)
	out, err := render("# Title\n\nsome text")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestStepStyler(t *testing.T) {
	plain := StepStyler(termenv.Ascii)
	assert.Equal(t, "[1/3] start: Program started", plain(domain.KindStart, "[1/3] start: Program started"))

	colored := StepStyler(termenv.TrueColor)
	out := colored(domain.KindError, "[2/3] line 1 error: boom")
	assert.Contains(t, out, "boom")
	assert.NotEqual(t, "[2/3] line 1 error: boom", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0\n")
	assert.Contains(t, buf.String(), "v0.1.0")
	assert.Contains(t, buf.String(), "\\___\\___/")
}
