package process

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("toolchain tests use sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func shellRunner(t *testing.T, opts ...RunnerOption) *Runner {
	t.Helper()
	tcs, err := ParseToolchains([]byte(`
toolchains:
  - language: shell
    source: main.sh
    steps:
      - command: sh
        args: ["{src}"]
  - language: built
    source: main.sh
    steps:
      - command: sh
        args: ["-c", "cp {src} {bin} && chmod +x {bin} && grep -q ok {src}"]
      - command: "{bin}"
  - language: fallback
    source: "{class}.sh"
    steps:
      - command: sh
        args: ["-c", "echo 'error: primary' >&2; exit 1"]
    fallback_on: "error:"
    fallback:
      - command: sh
        args: ["{dir}/{class}.sh"]
`))
	require.NoError(t, err)
	return NewRunner(append([]RunnerOption{WithToolchains(tcs), WithBaseDir(t.TempDir())}, opts...)...)
}

func TestRunner_Run(t *testing.T) {
	requireShell(t)
	r := shellRunner(t)
	ctx := context.Background()

	t.Run("stdout and inputs", func(t *testing.T) {
		res, err := r.Run(ctx, "shell", "read a; read b; echo \"$b-$a\"", []string{"1", "2"})
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "2-1\n", res.Stdout)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		res, err := r.Run(ctx, "shell", "echo out; echo boom >&2; exit 3", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "boom\n", res.Stderr)
	})

	t.Run("build then run", func(t *testing.T) {
		res, err := r.Run(ctx, "built", "#!/bin/sh\necho ok", nil)
		require.NoError(t, err)
		assert.Equal(t, "ok\n", res.Stdout)
	})

	t.Run("build failure", func(t *testing.T) {
		res, err := r.Run(ctx, "built", "#!/bin/sh\necho nope", nil)
		require.NoError(t, err)
		assert.NotEqual(t, 0, res.ExitCode)
		assert.Contains(t, res.Stderr, "Compile error:")
		assert.Empty(t, res.Stdout)
	})

	t.Run("fallback", func(t *testing.T) {
		res, err := r.Run(ctx, "fallback", "# public class Greeter\necho fell back", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "fell back\n", res.Stdout)
	})

	t.Run("unknown language", func(t *testing.T) {
		_, err := r.Run(ctx, "cobol", "", nil)
		assert.ErrorIs(t, err, domain.ErrToolchainNotFound)
	})
}

func TestRunner_Timeout(t *testing.T) {
	requireShell(t)
	r := shellRunner(t, WithTimeout(200*time.Millisecond))

	start := time.Now()
	_, err := r.Run(context.Background(), "shell", "sleep 5", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExternalExecution))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunner_CleansWorkDir(t *testing.T) {
	requireShell(t)
	base := t.TempDir()
	r := shellRunner(t, WithBaseDir(base))

	_, err := r.Run(context.Background(), "shell", "echo hi", nil)
	require.NoError(t, err)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunner_Supports(t *testing.T) {
	r := NewRunner()
	r.lookPath = func(name string) (string, error) {
		if name == "python" || name == "gcc" {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}

	assert.True(t, r.Supports("python"), "alternative interpreter")
	assert.True(t, r.Supports("c"))
	assert.False(t, r.Supports("cpp"))
	assert.False(t, r.Supports("java"))
	assert.False(t, r.Supports("rust"))
	assert.Equal(t, []string{"c", "cpp", "java", "python"}, r.Languages())
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "Hello", className("import x;\npublic class Hello {\n}"))
	assert.Equal(t, "Main", className("class Hidden {}"))
}

func TestLoadToolchains(t *testing.T) {
	dir := t.TempDir()

	tcs, err := LoadToolchains(dir + "/missing.yaml")
	require.NoError(t, err)
	assert.Empty(t, tcs)

	path := dir + "/toolchains.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"toolchains":[{"language":"lua","steps":[{"command":"lua","args":["{src}"]}]}]}`), 0o600))
	tcs, err = LoadToolchains(path)
	require.NoError(t, err)
	require.Contains(t, tcs, "lua")
	assert.Equal(t, "main", tcs["lua"].Source)

	_, err = ParseToolchains([]byte("toolchains:\n  - language: x\n"))
	assert.ErrorContains(t, err, "no steps")
}

func TestRunner_OutputLimit(t *testing.T) {
	requireShell(t)
	r := shellRunner(t, WithMaxOutputBytes(1024))

	start := time.Now()
	res, err := r.Run(context.Background(), "shell", "while true; do echo xxxxxxxxxxxxxxxx; done", nil)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, -1, res.ExitCode)
	assert.Len(t, res.Stdout, 1024)
	assert.Contains(t, res.Stderr, "Output limit exceeded (1024 bytes)")
	assert.Less(t, time.Since(start), 5*time.Second)

	res, err = r.Run(context.Background(), "shell", "echo small", nil)
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	assert.Equal(t, "small\n", res.Stdout)
}

func TestCappedBuffer(t *testing.T) {
	calls := 0
	b := &cappedBuffer{max: 4, onFull: func() { calls++ }}

	n, err := b.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = b.Write([]byte("cdef"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	_, _ = b.Write([]byte("gh"))

	assert.Equal(t, "abcd", b.buf.String())
	assert.True(t, b.full)
	assert.Equal(t, 1, calls)
}
