package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSkillsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "skills",
		Short: "List the skills discovered in the skills directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := c.skills(cmd.Context())
			for _, name := range reg.Discovered() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
