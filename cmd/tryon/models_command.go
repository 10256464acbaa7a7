package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mhpenta/tryon"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List candidate models in the order they are tried",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tMODEL\tIMAGE OUTPUT")
			for i, m := range tryon.ModelsFromIDs(cfg.Gemini.Models) {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, m.ID, yesNo(m.ImageCapable))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API versions: %s\n", strings.Join(cfg.Gemini.APIVersions, ", "))
			return nil
		},
	}
}
