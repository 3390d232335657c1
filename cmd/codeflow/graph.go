package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/codeflow-dev/codeflow/internal/cli"
	"github.com/codeflow-dev/codeflow/pkg/flowgraph"
	"github.com/codeflow-dev/codeflow/pkg/session"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the flow graph of a program",
	Long: `Traces the program in <file> and outputs a Mermaid diagram (graph TD) of the
control flow it took. --at N highlights the path up to step N.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		src, err := sourceFlags(cmd, args[0])
		if err != nil {
			return err
		}

		ctx := context.Background()
		engine, closer, err := cli.CreateEngine(ctx, cfg, cli.EngineOptions{Logger: logger})
		if err != nil {
			return err
		}
		defer closer()

		t, err := engine.Trace(ctx, src)
		if err != nil {
			return errors.New(session.ErrorMessage(err, engine.MaxSourceBytes()))
		}
		g := flowgraph.Compile(t)

		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(g)
		}

		var overlay *flowgraph.Overlay
		if at, _ := cmd.Flags().GetInt("at"); at > 0 {
			if at > t.Len() {
				return fmt.Errorf("step %d is out of range (1-%d)", at, t.Len())
			}
			overlay = flowgraph.OverlayAt(g, t, at-1)
		}

		// Generate and print Mermaid graph
		fmt.Fprint(cmd.OutOrStdout(), flowgraph.Mermaid(g, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("language", "l", "", "Source language (default: from the file extension)")
	graphCmd.Flags().StringArray("input", nil, "Value returned by successive input() calls (repeatable)")
	graphCmd.Flags().Int("at", 0, "Highlight the path up to this 1-based step")
	graphCmd.Flags().Bool("json", false, "Print the graph as JSON")
}
