package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/intentiq/internal/domain/model"
)

func newVersionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "versions [FAMILY]",
		Short: "List saved model versions per family",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.store()
			if err != nil {
				return err
			}
			families := store.Families()
			if len(args) == 1 {
				families = []model.Family{model.Family(args[0])}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FAMILY\tVERSIONS\tLATEST")
			for _, f := range families {
				versions, err := store.ListVersions(ctx, f)
				if err != nil {
					return err
				}
				latest := "-"
				if n := len(versions); n > 0 {
					latest = versions[n-1].String()
				}
				fmt.Fprintf(tw, "%s\t%v\t%s\n", f, versions, latest)
			}
			return tw.Flush()
		},
	}
}
