package cmd

import (
	"log/slog"
	"os"

	"github.com/signalnine/lighthouse-groupie/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lighthouse-groupie",
		Short: "Run lighthouse repeatedly against a site and aggregate the results",
		Long: `Perform one or more lighthouse runs against a target site and output the aggregated result.
Individual runs are stored under the app dir (default ~/.lighthouse-groupie).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(setupLogger(verbose))
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(), "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newRunCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newListCmd())
	return root
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file. The default location may be absent;
// a path given with --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(cfgFile)
}
