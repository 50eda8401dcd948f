package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newExpandCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "expand FILE...",
		Short: "Expand #[rustversion::...] attributes in Rust sources",
		Long: `Expand rewrites each #[rustversion::...] attribute: a true selector keeps
its item, a false one removes it, and a failing one becomes a
compile_error! at the attribute. The rest of the file is left untouched.

Files are processed in order and share one run, so a minver(...) in an
earlier file applies to the later ones. Use - to read standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failures []error
			for _, path := range args {
				src, err := readInput(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				res, err := a.engine.Expand(cmd.Context(), path, src)
				if err != nil {
					return err
				}
				for _, site := range res.Sites {
					a.logger.Debug("attribute",
						"pos", site.Pos.String(),
						"attribute", site.Attribute,
						"outcome", site.Outcome.String())
				}
				if err := res.Err(); err != nil {
					failures = append(failures, err)
				}

				if write {
					if err := writeBack(path, src, res.Output); err != nil {
						return err
					}
					continue
				}
				if _, err := cmd.OutOrStdout().Write(res.Output); err != nil {
					return err
				}
			}
			if len(failures) > 0 {
				return fmt.Errorf("expansion failed:\n%w", errors.Join(failures...))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to each file")
	return cmd
}
