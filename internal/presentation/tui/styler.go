package tui

import (
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/runner"
	"github.com/muesli/termenv"
)

var kindColors = map[domain.StepKind]string{
	domain.KindStart:         "#818cf8",
	domain.KindEnd:           "#818cf8",
	domain.KindVarDecl:       "#34d399",
	domain.KindAssignment:    "#34d399",
	domain.KindLoopCondition: "#fbbf24",
	domain.KindLoopUpdate:    "#fbbf24",
	domain.KindCondition:     "#f59e0b",
	domain.KindOutput:        "#60a5fa",
	domain.KindFuncDecl:      "#c084fc",
	domain.KindReturn:        "#c084fc",
	domain.KindBreak:         "#f472b6",
	domain.KindContinue:      "#f472b6",
	domain.KindError:         "#f87171",
}

// StepStyler colors step headlines by kind for the given profile. With the
// Ascii profile the text is returned unchanged.
func StepStyler(p termenv.Profile) runner.ContentRenderer {
	return func(kind domain.StepKind, text string) string {
		if p == termenv.Ascii {
			return text
		}
		s := termenv.String(text)
		if c, ok := kindColors[kind]; ok {
			s = s.Foreground(p.Color(c))
		}
		if kind == domain.KindError {
			s = s.Bold()
		}
		return s.String()
	}
}
