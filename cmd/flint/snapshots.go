package main

import (
	"github.com/spf13/cobra"
)

func newSnapshotsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect stored index snapshots",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List index snapshots held by the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := c.engine.Indexes().Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(names))
			for i, n := range names {
				rows[i] = []string{n}
			}
			renderTable(cmd.OutOrStdout(), []string{"INDEX"}, rows)
			return nil
		},
	})
	return cmd
}
