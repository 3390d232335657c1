// Package process runs programs with local toolchains. Only the commands of
// registered toolchains are ever executed; the program source goes to a
// file in a fresh temporary directory and its inputs go to stdin.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/dlclark/regexp2"
)

// DefaultTimeout bounds one complete run, build steps included.
const DefaultTimeout = 15 * time.Second

// DefaultMaxOutputBytes bounds what is captured from each of stdout and
// stderr of a single command.
const DefaultMaxOutputBytes = 1 << 20

var classPattern = regexp2.MustCompile(`public\s+class\s+(\w+)`, regexp2.None)

// Runner implements ports.ProcessRunner.
type Runner struct {
	toolchains map[string]Toolchain
	timeout    time.Duration
	maxOutput  int
	baseDir    string
	logger     *slog.Logger
	lookPath   func(string) (string, error)
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithToolchains registers toolchains, replacing any for the same language.
func WithToolchains(tcs map[string]Toolchain) RunnerOption {
	return func(r *Runner) {
		for lang, tc := range tcs {
			r.toolchains[lang] = tc
		}
	}
}

// WithTimeout sets the wall-clock limit of a run.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxOutputBytes sets how much of each output stream is kept. A command
// writing more is stopped.
func WithMaxOutputBytes(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxOutput = n
		}
	}
}

// WithBaseDir sets where the per-run temporary directories are created.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner with the built-in toolchains.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		toolchains: DefaultToolchains(),
		timeout:    DefaultTimeout,
		maxOutput:  DefaultMaxOutputBytes,
		logger:     logging.NewNop(),
		lookPath:   exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Languages returns the registered languages in sorted order.
func (r *Runner) Languages() []string {
	out := make([]string, 0, len(r.toolchains))
	for lang := range r.toolchains {
		out = append(out, lang)
	}
	slices.Sort(out)
	return out
}

// Supports reports whether language has a toolchain whose first command is
// installed.
func (r *Runner) Supports(language string) bool {
	tc, ok := r.toolchains[language]
	if !ok {
		return false
	}
	_, err := r.resolve(tc.Steps[0], nil)
	return err == nil
}

// Run builds and runs code. A build failure is reported as a result with
// the compiler diagnostics on Stderr; only failures to execute at all are
// returned as errors.
func (r *Runner) Run(ctx context.Context, language, code string, inputs []string) (ports.ProcessResult, error) {
	tc, ok := r.toolchains[language]
	if !ok {
		return ports.ProcessResult{}, fmt.Errorf("%w: %s", domain.ErrToolchainNotFound, language)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	dir, err := os.MkdirTemp(r.baseDir, "codeflow-"+language+"-")
	if err != nil {
		return ports.ProcessResult{}, fmt.Errorf("%w: failed to create work dir: %w", domain.ErrExternalExecution, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("failed to remove work dir", "dir", dir, "err", err)
		}
	}()

	class := className(code)
	vars := map[string]string{
		"{dir}":   dir,
		"{class}": class,
		"{bin}":   filepath.Join(dir, "main.out"),
	}
	src := filepath.Join(dir, expand(tc.Source, vars))
	vars["{src}"] = src
	if err := os.WriteFile(src, []byte(code), 0o600); err != nil {
		return ports.ProcessResult{}, fmt.Errorf("%w: failed to write source: %w", domain.ErrExternalExecution, err)
	}

	start := time.Now()
	res, err := r.pipeline(ctx, tc.Steps, dir, vars, inputs)
	if err == nil && res.ExitCode != 0 && tc.FallbackOn != "" && len(tc.Fallback) > 0 &&
		strings.Contains(res.Stderr, tc.FallbackOn) {
		r.logger.Debug("primary run failed, trying fallback", "language", language)
		res, err = r.pipeline(ctx, tc.Fallback, dir, vars, inputs)
	}
	if err != nil {
		return ports.ProcessResult{}, err
	}

	r.logger.Debug("process finished",
		"language", language,
		"exit_code", res.ExitCode,
		"duration", time.Since(start),
	)
	return res, nil
}

func (r *Runner) pipeline(ctx context.Context, steps []Command, dir string, vars map[string]string, inputs []string) (ports.ProcessResult, error) {
	var res ports.ProcessResult
	for i, c := range steps {
		last := i == len(steps)-1
		name, err := r.resolve(c, vars)
		if err != nil {
			return ports.ProcessResult{}, err
		}
		args := make([]string, len(c.Args))
		for j, a := range c.Args {
			args[j] = expand(a, vars)
		}

		var stdin []string
		if last {
			stdin = inputs
		}
		res, err = r.exec(ctx, name, args, dir, stdin)
		if err != nil {
			return ports.ProcessResult{}, err
		}
		if !last && res.ExitCode != 0 {
			return ports.ProcessResult{
				Stderr:   "Compile error:\n" + res.Stderr,
				ExitCode: res.ExitCode,
			}, nil
		}
	}
	return res, nil
}

func (r *Runner) exec(ctx context.Context, name string, args []string, dir string, inputs []string) (ports.ProcessResult, error) {
	runCtx, kill := context.WithCancel(ctx)
	defer kill()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	if len(inputs) > 0 {
		cmd.Stdin = strings.NewReader(strings.Join(inputs, "\n") + "\n")
	}

	stdout := &cappedBuffer{max: r.maxOutput, onFull: kill}
	stderr := &cappedBuffer{max: r.maxOutput, onFull: kill}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return ports.ProcessResult{}, fmt.Errorf("%w: %s: %w", domain.ErrExternalExecution, filepath.Base(name), ctx.Err())
	}

	res := ports.ProcessResult{Stdout: stdout.buf.String(), Stderr: stderr.buf.String()}
	if stdout.full || stderr.full {
		r.logger.Debug("process output limit exceeded", "command", filepath.Base(name), "limit", r.maxOutput)
		res.Truncated = true
		res.ExitCode = -1
		res.Stderr = strings.TrimSpace(fmt.Sprintf("Output limit exceeded (%d bytes). Process stopped.\n%s", r.maxOutput, res.Stderr))
		return res, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return ports.ProcessResult{}, fmt.Errorf("%w: %w", domain.ErrExternalExecution, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

// cappedBuffer keeps the first max bytes written to it and calls onFull
// once when more arrive. Each stream gets its own buffer, so writes never
// race.
type cappedBuffer struct {
	buf    bytes.Buffer
	max    int
	full   bool
	onFull func()
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.buf.Len()
	if len(p) <= room {
		return b.buf.Write(p)
	}
	if room > 0 {
		b.buf.Write(p[:room])
	}
	if !b.full {
		b.full = true
		b.onFull()
	}
	return len(p), nil
}

// resolve returns the executable for c. Commands built during the run are
// used as is; the others must be on PATH.
func (r *Runner) resolve(c Command, vars map[string]string) (string, error) {
	if strings.HasPrefix(c.Command, "{") {
		return expand(c.Command, vars), nil
	}
	for _, name := range append([]string{c.Command}, c.Alternatives...) {
		if path, err := r.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrToolchainNotFound, c.Command)
}

func expand(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, k, v)
	}
	return s
}

// className returns the public class of a Java source, or Main.
func className(code string) string {
	m, err := classPattern.FindStringMatch(code)
	if err != nil || m == nil {
		return "Main"
	}
	return m.GroupByNumber(1).String()
}
