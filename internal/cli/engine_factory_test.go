package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/codeflow-dev/codeflow/internal/config"
	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheCounter struct {
	mu           sync.Mutex
	hits, misses int
}

func (c *cacheCounter) observe(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Execution.Enabled = false
	return cfg
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.js", "javascript"},
		{"dir/Main.JAVA", "java"},
		{"prog.cc", "cpp"},
		{"script.py", "python"},
		{"query.sql", "sql"},
		{"notes.txt", "javascript"},
		{"Makefile", "javascript"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.path))
		})
	}
}

func TestCreateEngine_MemoryCache(t *testing.T) {
	var counter cacheCounter
	eng, closer, err := CreateEngine(context.Background(), testConfig(), EngineOptions{
		Logger:  logging.NewNop(),
		OnCache: counter.observe,
	})
	require.NoError(t, err)
	defer closer()

	src := domain.Source{Code: "let x = 1;"}
	for range 2 {
		_, err := eng.Execute(context.Background(), src)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, counter.hits)
	assert.Equal(t, 1, counter.misses)
	assert.Equal(t, "static", eng.StrategyFor("python"), "execution is disabled")
}

func TestCreateEngine_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisURL = "redis://" + mr.Addr()
	cfg.Cache.Lock = true

	var counter cacheCounter
	eng, closer, err := CreateEngine(context.Background(), cfg, EngineOptions{
		Logger:  logging.NewNop(),
		OnCache: counter.observe,
	})
	require.NoError(t, err)
	defer closer()

	src := domain.Source{Code: "print(1);"}
	first, err := eng.Execute(context.Background(), src)
	require.NoError(t, err)
	second, err := eng.Execute(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, 1, counter.hits)

	var traces int
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, cfg.Cache.Prefix) && !strings.Contains(k, "lock:") && !strings.HasSuffix(k, "index") {
			traces++
		}
	}
	assert.Equal(t, 1, traces)
}

func TestCreateEngine_Errors(t *testing.T) {
	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.Cache.Backend = "redis"
		cfg.Cache.RedisURL = "redis://" + mr.Addr()
		mr.Close()

		_, _, err := CreateEngine(context.Background(), cfg, EngineOptions{Logger: logging.NewNop()})
		assert.ErrorContains(t, err, "redis unavailable")
	})

	t.Run("bad redis url", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Backend = "redis"
		cfg.Cache.RedisURL = "http://nope"

		_, _, err := CreateEngine(context.Background(), cfg, EngineOptions{Logger: logging.NewNop()})
		assert.ErrorContains(t, err, "invalid redis url")
	})

	t.Run("missing profiles", func(t *testing.T) {
		cfg := testConfig()
		cfg.Analyzer.Profiles = filepath.Join(t.TempDir(), "absent.yaml")

		_, _, err := CreateEngine(context.Background(), cfg, EngineOptions{Logger: logging.NewNop()})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestCreateEngine_FileCache(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Cache.Backend = "file"
	cfg.Cache.Dir = dir

	src := domain.Source{Code: "let a = [1, 2];\nprint(a.length);"}
	var hits []int
	for range 2 {
		var counter cacheCounter
		eng, closer, err := CreateEngine(context.Background(), cfg, EngineOptions{
			Logger:  logging.NewNop(),
			OnCache: counter.observe,
		})
		require.NoError(t, err)

		res, err := eng.Execute(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, res.Output)
		require.NoError(t, closer())
		hits = append(hits, counter.hits)
	}
	assert.Equal(t, []int{0, 1}, hits, "a new engine reads the trace cached by the previous one")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
