package analyzer

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"
)

// matchTimeout bounds a single pattern match so a pathological user
// profile cannot stall analysis.
const matchTimeout = 100 * time.Millisecond

//go:embed profiles.yaml
var builtinYAML []byte

// Profile is the set of line classifiers for one language.
type Profile struct {
	Name    string
	comment *regexp2.Regexp
	rules   []Rule
}

// Rule classifies a matching line as Kind.
type Rule struct {
	Kind    domain.StepKind
	Pattern *regexp2.Regexp
	// Plain labels use the line text alone, without a kind prefix.
	Plain bool
}

// Rules returns the classifiers in match order.
func (p *Profile) Rules() []Rule { return p.rules }

// ProfileSpec is the YAML form of a Profile.
type ProfileSpec struct {
	Name       string     `yaml:"name"`
	Comment    string     `yaml:"comment"`
	IgnoreCase bool       `yaml:"ignore_case"`
	Rules      []RuleSpec `yaml:"rules"`
}

// RuleSpec is the YAML form of a Rule.
type RuleSpec struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern"`
	Plain   bool   `yaml:"plain"`
}

type profileFile struct {
	Profiles []ProfileSpec `yaml:"profiles"`
}

var validKinds = map[domain.StepKind]bool{
	domain.KindVarDecl:       true,
	domain.KindAssignment:    true,
	domain.KindLoopCondition: true,
	domain.KindCondition:     true,
	domain.KindOutput:        true,
	domain.KindFuncDecl:      true,
	domain.KindReturn:        true,
	domain.KindBreak:         true,
	domain.KindContinue:      true,
	domain.KindStatement:     true,
}

// Compile validates the profile and compiles its patterns.
func (s ProfileSpec) Compile() (*Profile, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("profile without a name")
	}
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if s.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}

	p := &Profile{Name: s.Name, rules: make([]Rule, 0, len(s.Rules))}
	if s.Comment != "" {
		re, err := compile(s.Comment, opts)
		if err != nil {
			return nil, fmt.Errorf("profile %s: comment pattern: %w", s.Name, err)
		}
		p.comment = re
	}
	for i, r := range s.Rules {
		kind := domain.StepKind(r.Kind)
		if !validKinds[kind] {
			return nil, fmt.Errorf("profile %s: rule %d: unsupported kind %q", s.Name, i, r.Kind)
		}
		re, err := compile(r.Pattern, opts)
		if err != nil {
			return nil, fmt.Errorf("profile %s: rule %d: %w", s.Name, i, err)
		}
		p.rules = append(p.rules, Rule{Kind: kind, Pattern: re, Plain: r.Plain})
	}
	return p, nil
}

func compile(pattern string, opts regexp2.RegexOptions) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// ParseProfiles decodes and compiles a YAML profile document.
func ParseProfiles(data []byte) ([]*Profile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	out := make([]*Profile, 0, len(f.Profiles))
	for _, spec := range f.Profiles {
		p, err := spec.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadProfiles reads a YAML profile file.
func LoadProfiles(path string) ([]*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	return ParseProfiles(data)
}

// Builtin returns the profiles shipped with the package.
func Builtin() []*Profile {
	ps, err := ParseProfiles(builtinYAML)
	if err != nil {
		panic("analyzer: invalid built-in profiles: " + err.Error())
	}
	return ps
}
