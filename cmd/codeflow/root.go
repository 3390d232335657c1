package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/codeflow-dev/codeflow/internal/cli"
	"github.com/codeflow-dev/codeflow/internal/config"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codeflow",
	Short: "Codeflow traces programs step by step",
	Long: `Codeflow records how a program executes, one step at a time: declarations,
assignments, loop checks, branches and output, each with a snapshot of the
variables. Traces can be replayed in the terminal, served to a browser over
WebSocket, or exposed to AI agents as MCP tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")
}

// setup loads the configuration and builds a logger writing to w.
func setup(cmd *cobra.Command, w io.Writer) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	logger, err := cli.NewLogger(cfg.Log, w)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

// readSource reads a program from path, or from stdin when path is "-".
func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

// sourceFlags builds the Source for a file argument from the --language and
// --input flags.
func sourceFlags(cmd *cobra.Command, path string) (domain.Source, error) {
	code, err := readSource(path)
	if err != nil {
		return domain.Source{}, err
	}
	lang, _ := cmd.Flags().GetString("language")
	if lang == "" {
		lang = cli.DetectLanguage(path)
	}
	inputs, _ := cmd.Flags().GetStringArray("input")
	return domain.Source{Code: code, Inputs: inputs, Language: lang}, nil
}
