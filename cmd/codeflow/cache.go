package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/codeflow-dev/codeflow/internal/cli"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the trace cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the keys of the cached traces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store ports.TraceStore) error {
			keys, err := store.List(ctx)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [key...]",
	Short: "Remove the given cached traces, or all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store ports.TraceStore) error {
			keys := args
			if len(keys) == 0 {
				var err error
				if keys, err = store.List(ctx); err != nil {
					return err
				}
			}
			for _, k := range keys {
				if err := store.Delete(ctx, k); err != nil {
					return fmt.Errorf("failed to remove %s: %w", k, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached traces.\n", len(keys))
			return nil
		})
	},
}

// withStore opens the configured trace cache for the duration of fn.
func withStore(cmd *cobra.Command, fn func(context.Context, ports.TraceStore) error) error {
	cfg, logger, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, closer, err := cli.OpenTraceStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer()
	if store == nil {
		return errors.New("the trace cache is disabled (cache.backend is none)")
	}
	return fn(ctx, store)
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
