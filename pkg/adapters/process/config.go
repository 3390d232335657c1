package process

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed toolchains.yaml
var builtinToolchains []byte

// Command is one process invocation of a toolchain.
type Command struct {
	Command string `yaml:"command" json:"command"`
	// Alternatives are tried in order when Command is not on PATH.
	Alternatives []string `yaml:"alternatives" json:"alternatives"`
	Args         []string `yaml:"args" json:"args"`
}

// Toolchain describes how to build and run the programs of one language.
// Every step but the last is a build step; the last one runs the program
// with the inputs on stdin.
type Toolchain struct {
	Language string    `yaml:"language" json:"language"`
	Source   string    `yaml:"source" json:"source"`
	Steps    []Command `yaml:"steps" json:"steps"`
	// Fallback replaces Steps when the primary run fails and its stderr
	// contains FallbackOn.
	FallbackOn string    `yaml:"fallback_on" json:"fallback_on"`
	Fallback   []Command `yaml:"fallback" json:"fallback"`
}

// ConfigFile represents the structure of toolchains.yaml.
type ConfigFile struct {
	Toolchains []Toolchain `yaml:"toolchains" json:"toolchains"`
}

// LoadToolchains reads a configuration file (YAML or JSON) and returns the
// toolchains keyed by language. A missing file yields an empty map.
func LoadToolchains(path string) (map[string]Toolchain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Toolchain{}, nil
		}
		return nil, fmt.Errorf("failed to read toolchains config: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var cfg ConfigFile
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return index(cfg)
	}
	return ParseToolchains(data)
}

// ParseToolchains decodes a YAML toolchain document.
func ParseToolchains(data []byte) (map[string]Toolchain, error) {
	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse toolchains: %w", err)
	}
	return index(cfg)
}

// DefaultToolchains returns the built-in java, c, cpp and python toolchains.
func DefaultToolchains() map[string]Toolchain {
	tcs, err := ParseToolchains(builtinToolchains)
	if err != nil {
		panic("process: invalid built-in toolchains: " + err.Error())
	}
	return tcs
}

func index(cfg ConfigFile) (map[string]Toolchain, error) {
	out := make(map[string]Toolchain, len(cfg.Toolchains))
	for _, tc := range cfg.Toolchains {
		if tc.Language == "" {
			continue
		}
		if len(tc.Steps) == 0 {
			return nil, fmt.Errorf("toolchain %s: no steps", tc.Language)
		}
		if tc.Source == "" {
			tc.Source = "main"
		}
		out[tc.Language] = tc
	}
	return out, nil
}
