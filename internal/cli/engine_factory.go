package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/internal/config"
	"github.com/codeflow-dev/codeflow/pkg/adapters/file"
	"github.com/codeflow-dev/codeflow/pkg/adapters/memory"
	"github.com/codeflow-dev/codeflow/pkg/adapters/process"
	"github.com/codeflow-dev/codeflow/pkg/adapters/redis"
	"github.com/codeflow-dev/codeflow/pkg/analyzer"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/ports"
)

// EngineOptions carries what the engine needs beyond the configuration.
type EngineOptions struct {
	Logger  *slog.Logger
	Hooks   domain.LifecycleHooks
	OnCache func(hit bool)
}

// CreateEngine builds an Engine from cfg. The returned function releases
// the cache backend.
func CreateEngine(ctx context.Context, cfg config.Config, opts EngineOptions) (*codeflow.Engine, func() error, error) {
	logger := opts.Logger
	closer := func() error { return nil }

	engineOpts := []codeflow.Option{
		codeflow.WithLogger(logger),
		codeflow.WithLifecycleHooks(opts.Hooks),
		codeflow.WithMaxSourceBytes(cfg.Limits.MaxSourceBytes),
		codeflow.WithLimits(interpreter.Limits{
			MaxSteps:        cfg.Limits.MaxSteps,
			MaxIterations:   cfg.Limits.MaxIterations,
			MaxArrayLength:  cfg.Limits.MaxArrayLength,
			MaxStringLength: cfg.Limits.MaxStringLength,
			MaxHeapBytes:    cfg.Limits.MaxHeapBytes,
		}),
	}
	if opts.OnCache != nil {
		engineOpts = append(engineOpts, codeflow.WithCacheObserver(opts.OnCache))
	}

	// 1. Extra analyzer profiles
	if cfg.Analyzer.Profiles != "" {
		profiles, err := analyzer.LoadProfiles(cfg.Analyzer.Profiles)
		if err != nil {
			return nil, closer, err
		}
		engineOpts = append(engineOpts, codeflow.WithProfiles(profiles...))
	}

	// 2. Local toolchains
	if cfg.Execution.Enabled {
		runnerOpts := []process.RunnerOption{
			process.WithTimeout(cfg.Limits.ExecTimeout),
			process.WithBaseDir(cfg.Execution.WorkDir),
			process.WithMaxOutputBytes(cfg.Limits.MaxOutputBytes),
			process.WithLogger(logger),
		}
		if cfg.Execution.Toolchains != "" {
			tcs, err := process.LoadToolchains(cfg.Execution.Toolchains)
			if err != nil {
				return nil, closer, err
			}
			runnerOpts = append(runnerOpts, process.WithToolchains(tcs))
		}
		engineOpts = append(engineOpts, codeflow.WithProcessRunner(process.NewRunner(runnerOpts...)))
	}

	// 3. Trace cache
	store, closeStore, err := OpenTraceStore(ctx, cfg, logger)
	if err != nil {
		return nil, closer, err
	}
	closer = closeStore
	if store != nil {
		engineOpts = append(engineOpts, codeflow.WithTraceStore(store))
	}
	if rs, ok := store.(*redis.Store); ok && cfg.Cache.Lock {
		engineOpts = append(engineOpts, codeflow.WithLocker(redis.NewLocker(rs.Client(), cfg.Cache.Prefix+"lock:"), cfg.Limits.ExecTimeout*2))
	}

	return codeflow.New(engineOpts...), closer, nil
}

// OpenTraceStore opens the configured trace cache. It returns a nil store
// for the none backend. The returned function releases the backend.
func OpenTraceStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.TraceStore, func() error, error) {
	closer := func() error { return nil }
	switch cfg.Cache.Backend {
	case "memory":
		return memory.NewStore(), closer, nil
	case "file":
		logger.Info("trace cache on disk", "dir", cfg.Cache.Dir)
		return file.New(cfg.Cache.Dir), closer, nil
	case "redis":
		store, err := redis.NewFromURL(cfg.Cache.RedisURL,
			redis.WithPrefix(cfg.Cache.Prefix),
			redis.WithTTL(cfg.Cache.TTL),
		)
		if err != nil {
			return nil, closer, err
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, closer, fmt.Errorf("redis unavailable: %w", err)
		}
		logger.Info("trace cache on redis", "prefix", cfg.Cache.Prefix, "lock", cfg.Cache.Lock)
		return store, store.Close, nil
	}
	return nil, closer, nil
}

// languageByExt maps file extensions to language names.
var languageByExt = map[string]string{
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".py":    "python",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".go":    "go",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".sql":   "sql",
}

// DetectLanguage guesses the language of a source file from its extension.
// Unknown extensions fall back to javascript.
func DetectLanguage(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "javascript"
}
