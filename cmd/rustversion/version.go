package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-rustversion/version"
)

// versionJSON is the --json form of a toolchain version.
type versionJSON struct {
	Version string `json:"version"`
	Minor   uint16 `json:"minor"`
	Patch   uint16 `json:"patch"`
	Channel string `json:"channel"`
	Date    string `json:"date,omitempty"`
}

func newVersionJSON(v version.Version) versionJSON {
	out := versionJSON{
		Version: v.String(),
		Minor:   v.Minor,
		Patch:   v.Patch,
		Channel: v.Channel.Kind.String(),
	}
	if v.Channel.Kind == version.KindNightly {
		out.Date = v.Channel.Date.String()
	}
	return out
}

func newVersionCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the detected compiler version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.engine.Version(cmd.Context())
			if err != nil {
				return err
			}
			if !asJSON {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), v)
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(newVersionJSON(v))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the version as JSON")
	return cmd
}
