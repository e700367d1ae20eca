package cmd

import (
	"fmt"

	"github.com/signalnine/lighthouse-groupie/internal/history"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [domain]",
		Short: "List recorded aggregates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			domain := ""
			if len(args) > 0 {
				domain = resolveDomain(args[0])
			}
			store, err := history.Open(cfg.AppDir)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), domain)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No aggregates recorded.")
				return nil
			}
			for _, e := range entries {
				mode := "full"
				if e.TimingsOnly {
					mode = "timings-only"
				}
				fmt.Fprintf(out, "  #%d %s %s (%d runs, %s)\n", e.ID, e.TimeStamp, e.Domain, e.Runs, mode)
			}
			return nil
		},
	}
}
