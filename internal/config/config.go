// Package config loads the codeflow service configuration from a YAML, TOML
// or JSON file, a .env file and CODEFLOW_* environment variables, in
// increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override, e.g. CODEFLOW_SERVER_ADDR.
const EnvPrefix = "CODEFLOW_"

// Config is the complete service configuration.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Log       Log       `mapstructure:"log"`
	Limits    Limits    `mapstructure:"limits"`
	Playback  Playback  `mapstructure:"playback"`
	Cache     Cache     `mapstructure:"cache"`
	Execution Execution `mapstructure:"execution"`
	Analyzer  Analyzer  `mapstructure:"analyzer"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins restricts WebSocket upgrades; empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Limits are the ceilings applied to every submission.
type Limits struct {
	MaxSourceBytes  int           `mapstructure:"max_source_bytes"`
	MaxSteps        int           `mapstructure:"max_steps"`
	MaxIterations   int           `mapstructure:"max_iterations"`
	MaxArrayLength  int           `mapstructure:"max_array_length"`
	MaxStringLength int           `mapstructure:"max_string_length"`
	MaxHeapBytes    int           `mapstructure:"max_heap_bytes"`
	MaxOutputBytes  int           `mapstructure:"max_output_bytes"`
	ExecTimeout     time.Duration `mapstructure:"exec_timeout"`
}

type Playback struct {
	DefaultSpeed time.Duration `mapstructure:"default_speed"`
}

// Cache selects where traces are memoized: none, memory, file or redis.
type Cache struct {
	Backend  string        `mapstructure:"backend"`
	Dir      string        `mapstructure:"dir"`
	RedisURL string        `mapstructure:"redis_url"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Lock     bool          `mapstructure:"lock"`
}

// Execution controls running programs with local toolchains.
type Execution struct {
	Enabled    bool   `mapstructure:"enabled"`
	Toolchains string `mapstructure:"toolchains"`
	WorkDir    string `mapstructure:"work_dir"`
}

type Analyzer struct {
	// Profiles is an optional YAML file with extra language profiles.
	Profiles string `mapstructure:"profiles"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":3001",
			ShutdownTimeout: 5 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
		Limits: Limits{
			MaxSourceBytes:  50000,
			MaxSteps:        5000,
			MaxIterations:   1000,
			MaxArrayLength:  10_000,
			MaxStringLength: 1 << 20,
			MaxHeapBytes:    64 << 20,
			MaxOutputBytes:  1 << 20,
			ExecTimeout:     15 * time.Second,
		},
		Playback: Playback{DefaultSpeed: 600 * time.Millisecond},
		Cache: Cache{
			Backend: "memory",
			Prefix:  "codeflow:trace:",
			TTL:     time.Hour,
		},
		Execution: Execution{Enabled: true},
	}
}

// Load reads path (if not empty) over the defaults, then applies the
// environment. Variables from a .env file in the working directory are
// loaded first but never override the real environment.
func Load(path string) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	raw := map[string]any{}
	if path != "" {
		var err error
		if raw, err = readFile(path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(raw, os.Environ())

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files, skipping missing ones.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	switch c.Cache.Backend {
	case "none", "memory", "file":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be none, memory, file or redis, got %q", c.Cache.Backend)
	}
	if c.Limits.MaxSourceBytes <= 0 {
		return errors.New("limits.max_source_bytes must be positive")
	}
	l := c.Limits
	if l.MaxSteps < 0 || l.MaxIterations < 0 || l.MaxArrayLength < 0 || l.MaxStringLength < 0 ||
		l.MaxHeapBytes < 0 || l.MaxOutputBytes < 0 {
		return errors.New("limits must not be negative")
	}
	return nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		_, err = toml.Decode(string(data), &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return raw, nil
}

// applyEnv maps CODEFLOW_SECTION_KEY=value onto raw["section"]["key"].
func applyEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_")
		if !ok || key == "" {
			continue
		}
		m, ok := raw[section].(map[string]any)
		if !ok {
			m = map[string]any{}
			raw[section] = m
		}
		m[key] = value
	}
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
