package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEvalCmd(a *app) *cobra.Command {
	var exitCode bool
	cmd := &cobra.Command{
		Use:   "eval SELECTOR...",
		Short: "Evaluate selectors against the compiler version",
		Long: `Evaluate each selector and print true or false, one per line.

Selectors share one run, so a minver(...) constrains the selectors after it.`,
		Example: `  rustversion eval 'since(1.31)'
  rustversion eval --exit-code 'all(nightly, since(2019-01-01))'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			allTrue := true
			for _, text := range args {
				ok, err := a.engine.Eval(cmd.Context(), text)
				if err != nil {
					return fmt.Errorf("%s: %w", text, err)
				}
				allTrue = allTrue && ok
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), ok); err != nil {
					return err
				}
			}
			if exitCode && !allTrue {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit with status 1 when any selector is false")
	return cmd
}
