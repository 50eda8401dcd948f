package main

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/go-rustversion/bazel"
)

// filtered is the result for one Bazel file.
type filtered struct {
	src    []byte
	out    []byte
	report *bazel.Report
}

func newBazelFilterCmd(a *app) *cobra.Command {
	var (
		write bool
		list  bool
		jobs  int
	)
	cmd := &cobra.Command{
		Use:   "bazel-filter FILE...",
		Short: "Filter Bazel statements by their rustversion comments",
		Long: `Filter applies "# rustversion: SELECTOR" comments in BUILD, .bzl and
MODULE.bazel files. A statement whose selectors all hold is kept with the
comment removed, one whose selector is false is removed, and one whose
selector fails becomes a fail() call.`,
		Example: `  # rustversion: since(1.80)
  rust_library(name = "uses_new_std", ...)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs <= 0 {
				jobs = runtime.GOMAXPROCS(0)
			}
			results := make([]filtered, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, path := range args {
				g.Go(func() error {
					src, err := readInput(cmd.InOrStdin(), path)
					if err != nil {
						return err
					}
					out, report, err := a.engine.FilterBazel(ctx, path, src)
					if err != nil {
						return err
					}
					results[i] = filtered{src: src, out: out, report: report}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			var failures []error
			for i, path := range args {
				r := results[i]
				if err := r.report.Err(); err != nil {
					failures = append(failures, err)
				}
				switch {
				case list:
					for _, s := range r.report.Statements {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", s.Pos, s.Kind, s.Name, s.Outcome)
					}
				case write:
					if err := writeBack(path, r.src, r.out); err != nil {
						return err
					}
				default:
					if _, err := cmd.OutOrStdout().Write(r.out); err != nil {
						return err
					}
				}
			}
			if len(failures) > 0 {
				return fmt.Errorf("filtering failed:\n%w", errors.Join(failures...))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to each file")
	cmd.Flags().BoolVar(&list, "list", false, "list annotated statements instead of printing the result")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files filtered concurrently (default GOMAXPROCS)")
	cmd.MarkFlagsMutuallyExclusive("write", "list")
	return cmd
}
