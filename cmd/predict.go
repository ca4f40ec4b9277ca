package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPredictCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "predict TEXT...",
		Short: "Classify text and print the probability table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parts, err := c.build(ctx, nil)
			if err != nil {
				return err
			}
			out, err := parts.engine.Classify(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprintf(w, "[Predicted Intent] %s\n", out.Label)
			if len(out.Scores) > 0 {
				fmt.Fprintf(w, "%s\n", tableRule)
				for _, s := range out.Scores {
					fmt.Fprintf(w, "%-20s %6.2f%%\n", s.Label, s.Probability*100)
				}
				fmt.Fprintf(w, "%s\n", tableRule)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	return cmd
}

const tableRule = "----------------------------------------"
