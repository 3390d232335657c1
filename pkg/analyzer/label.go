package analyzer

import (
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/dlclark/regexp2"
)

var (
	loopKeyword = regexp2.MustCompile(`for|while|loop`, regexp2.ECMAScript)
	condKeyword = regexp2.MustCompile(`if|else if|else`, regexp2.ECMAScript)
)

// makeLabel renders the two-line node label for a classified line:
// a kind prefix, a newline, then the shortened statement text.
func makeLabel(line string, r Rule) string {
	t := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line), "{};"))
	if r.Plain {
		return truncate(t, 0, 30)
	}
	switch r.Kind {
	case domain.KindVarDecl:
		return "Create\n" + truncate(t, 0, 30)
	case domain.KindAssignment:
		return "Update\n" + truncate(t, 0, 30)
	case domain.KindLoopCondition:
		return "Loop:\n" + truncate(strings.TrimSpace(replaceFirst(loopKeyword, t)), 0, 28)
	case domain.KindCondition:
		return "Check:\n" + truncate(strings.TrimSpace(replaceFirst(condKeyword, t)), 0, 28)
	case domain.KindOutput:
		return "Print:\n" + truncate(t, 0, 28)
	case domain.KindFuncDecl:
		return "Function:\n" + truncate(t, 0, 28)
	case domain.KindReturn:
		return "Return\n" + strings.TrimSpace(truncate(t, len("return"), 28))
	}
	return truncate(t, 0, 30)
}

func replaceFirst(re *regexp2.Regexp, s string) string {
	out, err := re.Replace(s, "", -1, 1)
	if err != nil {
		return s
	}
	return out
}

// truncate returns the runes of s in [from, to), clamped to its length.
func truncate(s string, from, to int) string {
	r := []rune(s)
	if from > len(r) {
		from = len(r)
	}
	if to > len(r) {
		to = len(r)
	}
	return string(r[from:to])
}

// describe flattens a label into a one-line step description.
func describe(label string) string {
	head, rest, ok := strings.Cut(label, "\n")
	if !ok {
		return label
	}
	return strings.TrimSuffix(head, ":") + ": " + rest
}
