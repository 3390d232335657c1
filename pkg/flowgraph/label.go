package flowgraph

import (
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/dlclark/regexp2"
)

var (
	declPattern   = regexp2.MustCompile(`^Declare \w+ (\S+) = (.+)$`, regexp2.ECMAScript)
	assignPattern = regexp2.MustCompile(`^Assign (\S+) = (.+?) \(was (.+?)\)$`, regexp2.ECMAScript)
	updatePattern = regexp2.MustCompile(`^for update: (.+?) \((.+?) → (.+?)\)$`, regexp2.ECMAScript)
	printPattern  = regexp2.MustCompile(`^(?:console\.log|print)\((.*)\)$`, regexp2.ECMAScript)
)

// Label returns the display label of the node first created for s.
// Static steps already describe themselves as "Prefix: text".
func Label(s domain.Step, static bool) string {
	d := s.Description
	if static {
		return strings.Replace(d, ": ", "\n", 1)
	}

	switch s.Kind {
	case domain.KindStart:
		return "START"
	case domain.KindEnd:
		return "END"
	case domain.KindVarDecl:
		if m := groups(declPattern, d); m != nil {
			return `Create "` + m[0] + `"` + "\n= " + m[1]
		}
	case domain.KindAssignment:
		if m := groups(assignPattern, d); m != nil {
			return m[0] + ": " + m[2] + " → " + m[1]
		}
	case domain.KindLoopCondition:
		return "Loop\nCondition?\n" + verdict(s.ConditionResult)
	case domain.KindCondition:
		return "Condition?\n" + verdict(s.ConditionResult)
	case domain.KindLoopUpdate:
		if m := groups(updatePattern, d); m != nil {
			return "Update\n" + m[0] + "\n(" + m[1] + " → " + m[2] + ")"
		}
		return "Update"
	case domain.KindOutput:
		if m := groups(printPattern, d); m != nil {
			return "Print:\n" + m[0]
		}
		return "Print Output"
	case domain.KindFuncDecl:
		return "Define\nFunction"
	case domain.KindReturn:
		return "Return\nValue"
	case domain.KindError:
		return "❌ Error"
	}
	if d == "" {
		return string(s.Kind)
	}
	return clip(d, 40)
}

func verdict(result *bool) string {
	if result != nil && *result {
		return "YES ✓"
	}
	return "NO ✗"
}

// groups returns the capture groups of the first match, or nil.
func groups(re *regexp2.Regexp, s string) []string {
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil
	}
	gs := m.Groups()[1:]
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.String()
	}
	return out
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
