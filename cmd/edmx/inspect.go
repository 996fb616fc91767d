package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInspectCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the snapshot of the built model as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.build(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(m.Snapshot(m.Conceptual.Namespace)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
