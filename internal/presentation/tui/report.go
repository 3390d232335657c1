package tui

import (
	"fmt"
	"strings"

	"github.com/codeflow-dev/codeflow"
)

// Report renders a trace result as markdown: a steps table, the console
// output and the error, if any.
func Report(title string, res *codeflow.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if res.Note != "" {
		fmt.Fprintf(&sb, "> %s\n\n", res.Note)
	}

	fmt.Fprintf(&sb, "## Steps (%d)\n\n", len(res.Steps))
	sb.WriteString("| # | Line | Kind | Description |\n")
	sb.WriteString("|---|------|------|-------------|\n")
	for i, s := range res.Steps {
		line := "-"
		if s.Line > 0 {
			line = fmt.Sprint(s.Line)
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i+1, line, s.Kind, cell(s.Description))
	}

	if len(res.Output) > 0 {
		sb.WriteString("\n## Output\n\n```\n")
		for _, l := range res.Output {
			sb.WriteString(l)
			sb.WriteByte('\n')
		}
		sb.WriteString("```\n")
	}

	if res.Error != nil {
		fmt.Fprintf(&sb, "\n## Error\n\n%s\n", *res.Error)
	}
	return sb.String()
}

// cell escapes text for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
