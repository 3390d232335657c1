package analyzer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codeflow-dev/codeflow/pkg/analyzer"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const javaSource = `public class Main {
    static int twice(int n) {
        return n * 2;
    }
    public static void main(String[] args) {
        int x = 5;
        for (int i = 0; i < 3; i++) {
            System.out.println(i);
        }
        // bump
        x = x + 1;
        if (x > 5) {
            System.out.println("big");
        } else {
            x = 0;
        }
    }
}`

func TestAnalyze_Java(t *testing.T) {
	a := analyzer.New()
	tr := a.Analyze(javaSource, "java")

	assert.True(t, tr.IsStatic)
	assert.Equal(t, "java", tr.Language)
	assert.Equal(t, "Static flow analysis for java. Code is not executed — structure is analyzed.", tr.Note)

	assert.Equal(t, []domain.StepKind{
		domain.KindStart,
		domain.KindFuncDecl,
		domain.KindReturn,
		domain.KindFuncDecl,
		domain.KindVarDecl,
		domain.KindLoopCondition,
		domain.KindOutput,
		domain.KindAssignment,
		domain.KindCondition,
		domain.KindOutput,
		domain.KindAssignment,
		domain.KindEnd,
	}, tr.Kinds())

	lines := make([]int, tr.Len())
	descs := make([]string, tr.Len())
	for i, s := range tr.Steps {
		lines[i] = s.Line
		descs[i] = s.Description
	}
	assert.Equal(t, []int{1, 2, 3, 5, 6, 7, 8, 11, 12, 13, 15, 18}, lines)
	assert.Equal(t, "Program starts", descs[0])
	assert.Equal(t, "Return: n * 2", descs[2])
	assert.Equal(t, "Function: public static void main(Stri", descs[3])
	assert.Equal(t, "Create: int x = 5", descs[4])
	assert.Equal(t, "Loop: (int i = 0; i < 3; i++)", descs[5])
	assert.Equal(t, "Print: System.out.println(i)", descs[6])
	assert.Equal(t, "Update: x = x + 1", descs[7])
	assert.Equal(t, "Check: (x > 5)", descs[8])
	assert.Equal(t, "Program ends", descs[11])
}

func TestAnalyze_StepsCarryNoState(t *testing.T) {
	tr := analyzer.New().Analyze(javaSource, "java")
	for _, s := range tr.Steps {
		assert.Empty(t, s.Snapshot.Variables())
		assert.Empty(t, s.Snapshot.Output())
		assert.Nil(t, s.LoopState)
		assert.Nil(t, s.ConditionResult)
	}
	assert.Equal(t, []string{analyzer.Frame}, tr.Steps[1].Snapshot.StackFrames())
	assert.Empty(t, tr.Steps[tr.Len()-1].Snapshot.StackFrames())
}

func TestAnalyze_Profiles(t *testing.T) {
	tests := []struct {
		lang string
		src  string
		want []domain.StepKind
	}{
		{
			lang: "sql",
			src:  "select name\nFROM users\nWHERE age > 18\n-- note\nGROUP BY name;",
			want: []domain.StepKind{domain.KindStart, domain.KindOutput, domain.KindStatement, domain.KindCondition, domain.KindStatement, domain.KindEnd},
		},
		{
			lang: "python",
			src:  "def f(x):\n    return x\n# loop\nfor i in range(3):\n    print(i)\nx = 1\nif x == 1:\n    pass",
			want: []domain.StepKind{domain.KindStart, domain.KindFuncDecl, domain.KindReturn, domain.KindLoopCondition, domain.KindOutput, domain.KindAssignment, domain.KindCondition, domain.KindEnd},
		},
		{
			lang: "go",
			src:  "func main() {\n\tx := 1\n\tfor x < 3 {\n\t\tx++\n\t\tx = x * 2\n\t}\n\tfmt.Println(x)\n}",
			want: []domain.StepKind{domain.KindStart, domain.KindFuncDecl, domain.KindVarDecl, domain.KindLoopCondition, domain.KindAssignment, domain.KindOutput, domain.KindEnd},
		},
		{
			lang: "rust",
			src:  "fn main() {\n    let mut n = 0;\n    while n < 3 {\n        n += 1;\n    }\n    println!(\"{}\", n);\n}",
			want: []domain.StepKind{domain.KindStart, domain.KindFuncDecl, domain.KindVarDecl, domain.KindLoopCondition, domain.KindAssignment, domain.KindOutput, domain.KindEnd},
		},
		{
			lang: "cpp",
			src:  "int main() {\n  int a = 1;\n  std::cout << a;\n  return 0;\n}",
			want: []domain.StepKind{domain.KindStart, domain.KindFuncDecl, domain.KindVarDecl, domain.KindOutput, domain.KindReturn, domain.KindEnd},
		},
		{
			lang: "typescript",
			src:  "const n: number = 3;\nfunction f() {}\nwhile (n > 0) {\n  console.log(n);\n}",
			want: []domain.StepKind{domain.KindStart, domain.KindVarDecl, domain.KindFuncDecl, domain.KindLoopCondition, domain.KindOutput, domain.KindEnd},
		},
	}
	a := analyzer.New()
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			tr := a.Analyze(tt.src, tt.lang)
			assert.Equal(t, tt.want, tr.Kinds())
		})
	}
}

func TestAnalyze_UnknownLanguageFallsBack(t *testing.T) {
	tr := analyzer.New().Analyze("int x = 1;", "kotlin")
	assert.Equal(t, []domain.StepKind{domain.KindStart, domain.KindVarDecl, domain.KindEnd}, tr.Kinds())
	assert.Contains(t, tr.Note, "kotlin")

	tr = analyzer.New(analyzer.WithFallback("none")).Analyze("int x = 1;", "kotlin")
	assert.Equal(t, []domain.StepKind{domain.KindStart, domain.KindEnd}, tr.Kinds())
}

func TestAnalyze_EmptySource(t *testing.T) {
	tr := analyzer.New().Analyze("", "c")
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, 1, tr.Steps[0].Line)
	assert.Equal(t, 1, tr.Steps[1].Line)
}

func TestLoadProfiles(t *testing.T) {
	doc := `
profiles:
  - name: lua
    comment: '^\s*--'
    rules:
      - {kind: output, pattern: '^\s*print\s*\('}
      - {kind: loop-condition, pattern: '^\s*(for|while)\b'}
      - {kind: var-decl, pattern: '^\s*local\s+\w+'}
`
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	ps, err := analyzer.LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, ps, 1)

	a := analyzer.New(analyzer.WithProfiles(ps...))
	assert.Contains(t, a.Languages(), "lua")
	assert.Contains(t, a.Languages(), "java")

	tr := a.Analyze("local x = 1\n-- print(x)\nfor i = 1, 3 do\n  print(i)\nend", "lua")
	assert.Equal(t, []domain.StepKind{domain.KindStart, domain.KindVarDecl, domain.KindLoopCondition, domain.KindOutput, domain.KindEnd}, tr.Kinds())

	p, ok := a.Profile("lua")
	require.True(t, ok)
	assert.Len(t, p.Rules(), 3)
	assert.Equal(t, "lua", analyzer.Analyze("print(1)", p).Language)
}

func TestParseProfiles_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad kind", "profiles:\n  - name: x\n    rules:\n      - {kind: start, pattern: 'a'}", `unsupported kind "start"`},
		{"bad pattern", "profiles:\n  - name: x\n    rules:\n      - {kind: output, pattern: '('}", "profile x: rule 0"},
		{"no name", "profiles:\n  - rules: []", "profile without a name"},
		{"bad yaml", "profiles: [", "failed to parse profiles"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.ParseProfiles([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
