package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/codeflow-dev/codeflow/internal/cli"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the supported languages and how each is traced",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		engine, closer, err := cli.CreateEngine(context.Background(), cfg, cli.EngineOptions{Logger: logger})
		if err != nil {
			return err
		}
		defer closer()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LANGUAGE\tSTRATEGY")
		for _, l := range engine.Languages() {
			fmt.Fprintf(w, "%s\t%s\n", l, engine.StrategyFor(l))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
