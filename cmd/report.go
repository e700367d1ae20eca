package cmd

import (
	"fmt"

	"github.com/signalnine/lighthouse-groupie/internal/aggregate"
	"github.com/signalnine/lighthouse-groupie/internal/report"
	"github.com/signalnine/lighthouse-groupie/internal/result"
	"github.com/signalnine/lighthouse-groupie/internal/target"
	"github.com/spf13/cobra"
)

var (
	flagReportFormat      string
	flagReportOutput      string
	flagReportTimingsOnly bool
	flagReportLast        int
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <target-or-domain>",
		Short: "Aggregate stored runs of a domain without running lighthouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			domain := resolveDomain(args[0])
			files, err := result.ListRunFiles(cfg.AppDir, domain)
			if err != nil {
				return err
			}
			if flagReportLast > 0 && len(files) > flagReportLast {
				files = files[len(files)-flagReportLast:]
			}
			rep, err := aggregate.Aggregate(domain, files, cfg.TimingsOnly || flagReportTimingsOnly)
			if err != nil {
				return fmt.Errorf("aggregating results: %w", err)
			}
			if flagReportOutput != "" {
				return report.WriteFile(flagReportOutput, rep)
			}
			return report.Write(rep, flagReportFormat, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flagReportFormat, "format", "json", "output format (json, table, markdown)")
	cmd.Flags().StringVarP(&flagReportOutput, "output", "o", "", "write the aggregate to this path instead of stdout")
	cmd.Flags().BoolVarP(&flagReportTimingsOnly, "timings-only", "t", false, "only include timing metrics")
	cmd.Flags().IntVar(&flagReportLast, "last", 0, "only aggregate the most recent N runs")
	return cmd
}

// resolveDomain accepts either a bare domain or a full target URL.
func resolveDomain(arg string) string {
	if t, err := target.Parse(arg); err == nil {
		return t.Domain
	}
	return arg
}
