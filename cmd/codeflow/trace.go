package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/internal/cli"
	"github.com/codeflow-dev/codeflow/internal/presentation/tui"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/runner"
	"github.com/codeflow-dev/codeflow/pkg/session"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <file>",
	Short: "Trace a program and print its steps",
	Long: `Traces the program in <file> ("-" reads stdin) and prints every step, the
console output and the error, if any.

With --interactive the trace is played back in the terminal instead:
  n / Enter  step forward        b     step back
  j N        jump to step N      p     play (p MS sets the interval)
  s          pause               r     restart
  q          quit
Ctrl+C pauses playback, and quits when already paused.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive && args[0] == "-" {
			return errors.New("--interactive reads commands from stdin; pass a file")
		}

		cfg, logger, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		src, err := sourceFlags(cmd, args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()

		engine, closer, err := cli.CreateEngine(ctx, cfg, cli.EngineOptions{Logger: logger})
		if err != nil {
			return err
		}
		defer closer()

		if interactive {
			return play(ctx, cmd, engine, cfg.Limits.MaxSourceBytes, src, jsonMode)
		}

		res, err := engine.Execute(ctx, src)
		if err != nil {
			return errors.New(session.ErrorMessage(err, engine.MaxSourceBytes()))
		}

		out := cmd.OutOrStdout()
		if jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		report := tui.Report(filepath.Base(args[0]), res)
		if tui.IsTerminal(os.Stdout) {
			render, err := tui.NewRenderer(tui.Width(os.Stdout))
			if err != nil {
				return err
			}
			if report, err = render(report); err != nil {
				return err
			}
		}
		fmt.Fprint(out, report)
		return nil
	},
}

// play replays the trace in the terminal until the user quits.
func play(ctx context.Context, cmd *cobra.Command, engine *codeflow.Engine, maxBytes int, src domain.Source, jsonMode bool) error {
	speed, _ := cmd.Flags().GetDuration("speed")
	autoPlay, _ := cmd.Flags().GetBool("autoplay")

	var printer runner.Printer
	if jsonMode {
		printer = runner.NewJSONPrinter(cmd.OutOrStdout())
	} else {
		profile := termenv.NewOutput(os.Stdout).ColorProfile()
		printer = runner.NewTextPrinter(cmd.OutOrStdout(), runner.WithRenderer(tui.StepStyler(profile)))
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, codeflow.Version)
		}
	}

	r := runner.New(engine,
		runner.WithInput(cmd.InOrStdin()),
		runner.WithPrinter(printer),
		runner.WithSpeed(speed),
		runner.WithAutoPlay(autoPlay),
		runner.WithSignals(true),
		runner.WithControllerOptions(session.WithMaxSourceBytes(maxBytes)),
	)
	return r.Run(ctx, src)
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().StringP("language", "l", "", "Source language (default: from the file extension)")
	traceCmd.Flags().StringArray("input", nil, "Value returned by successive input() calls (repeatable)")
	traceCmd.Flags().Bool("json", false, "Print JSON instead of text")
	traceCmd.Flags().BoolP("interactive", "i", false, "Replay the trace step by step")
	traceCmd.Flags().Duration("speed", 600*time.Millisecond, "Auto-play interval for --interactive")
	traceCmd.Flags().Bool("autoplay", false, "Start playing immediately with --interactive")
}
