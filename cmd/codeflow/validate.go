package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/session"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a javascript program parses",
	Long: `Parses the program in <file> without running it and reports the first
syntax error with its line and column. Other languages are only analyzed
statically and always pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		src, err := sourceFlags(cmd, args[0])
		if err != nil {
			return err
		}

		engine := codeflow.New(codeflow.WithMaxSourceBytes(cfg.Limits.MaxSourceBytes))
		out := cmd.OutOrStdout()
		if engine.Canonical(src.Language) != interpreter.Language {
			fmt.Fprintf(out, "%s is analyzed statically; nothing to validate.\n", engine.Canonical(src.Language))
			return nil
		}

		err = engine.Validate(src.Code)
		var syntaxErr *domain.SyntaxError
		switch {
		case err == nil:
			fmt.Fprintln(out, "Program is valid! ✅")
			return nil
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("%s:%d:%d: %s", args[0], syntaxErr.Line, syntaxErr.Column, syntaxErr.Message)
		default:
			return errors.New(session.ErrorMessage(err, engine.MaxSourceBytes()))
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("language", "l", "", "Source language (default: from the file extension)")
}
