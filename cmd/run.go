package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/signalnine/lighthouse-groupie/internal/aggregate"
	"github.com/signalnine/lighthouse-groupie/internal/config"
	"github.com/signalnine/lighthouse-groupie/internal/history"
	"github.com/signalnine/lighthouse-groupie/internal/report"
	"github.com/signalnine/lighthouse-groupie/internal/result"
	"github.com/signalnine/lighthouse-groupie/internal/runner"
	"github.com/signalnine/lighthouse-groupie/internal/target"
	"github.com/spf13/cobra"
)

var (
	flagCount       int
	flagOutput      string
	flagTimingsOnly bool
	flagHeaders     string
	flagDocker      bool
	flagFormat      string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run <target>",
		Short:   "Run lighthouse against a target and print the aggregate",
		Example: "  lighthouse-groupie run https://www.google.se --count 10",
		Args:    cobra.ExactArgs(1),
		RunE:    runLighthouse,
	}
	cmd.Flags().IntVarP(&flagCount, "count", "c", 0, "number of runs (default from config, 30)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the aggregate to this path instead of stdout")
	cmd.Flags().BoolVarP(&flagTimingsOnly, "timings-only", "t", false, "ignore scores and other values that usually stay static between runs")
	cmd.Flags().StringVar(&flagHeaders, "headers", "", `extra request headers as a JSON object, e.g. '{"Cookie":"a=b"}'`)
	cmd.Flags().BoolVar(&flagDocker, "docker", false, "run lighthouse inside a container")
	cmd.Flags().StringVar(&flagFormat, "format", "json", "stdout format (json, table, markdown)")
	return cmd
}

func runLighthouse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !slices.Contains(report.Formats, flagFormat) {
		return fmt.Errorf("unknown format %q (valid: json, table, markdown)", flagFormat)
	}
	tgt, err := target.Parse(args[0])
	if err != nil {
		return err
	}
	if flagCount < 0 {
		return fmt.Errorf("count must be at least 1")
	}
	if flagCount > 0 {
		cfg.Count = flagCount
	}
	timingsOnly := cfg.TimingsOnly || flagTimingsOnly
	headers, err := mergeHeaders(cfg.Lighthouse.Headers, flagHeaders)
	if err != nil {
		return err
	}

	slog.Debug("using app_dir", "app_dir", cfg.AppDir)
	if _, err := result.EnsureDomainDir(cfg.AppDir, tgt.Domain); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	r := newRunner(cfg, flagDocker, stderr)
	ctx := cmd.Context()

	fmt.Fprintf(stderr, "Running lighthouse against %s (%d runs)...\n", tgt, cfg.Count)
	files, err := runner.RunAll(ctx, r, runner.RunOpts{
		AppDir:  cfg.AppDir,
		Domain:  tgt.Domain,
		Target:  tgt.String(),
		Headers: headers,
	}, cfg.Count, func(i int) {
		fmt.Fprintf(stderr, "  [%d/%d] done\n", i, cfg.Count)
	})
	if err != nil {
		slog.Error("lighthouse run failed", "target", tgt.String(), "err", err)
		return err
	}

	rep, err := aggregate.Aggregate(tgt.Domain, files, timingsOnly)
	if err != nil {
		slog.Error("failed to parse and collect result aggregate", "err", err)
		return fmt.Errorf("aggregating results: %w", err)
	}

	if flagOutput != "" {
		if err := report.WriteFile(flagOutput, rep); err != nil {
			return err
		}
		slog.Debug("wrote aggregate", "path", flagOutput)
	} else if err := report.Write(rep, flagFormat, cmd.OutOrStdout()); err != nil {
		return err
	}

	if !cfg.History.Disabled {
		recordHistory(ctx, cfg.AppDir, rep)
	}
	return nil
}

func newRunner(cfg *config.Config, forceDocker bool, stderr io.Writer) runner.Runner {
	if forceDocker || cfg.Docker.Enabled {
		return &runner.DockerRunner{
			Image:       cfg.Docker.Image,
			ChromeFlags: cfg.Lighthouse.ChromeFlags,
			Timeout:     cfg.Lighthouse.Timeout(),
			Stderr:      stderr,
		}
	}
	return &runner.ExecRunner{
		Binary:      cfg.Lighthouse.Binary,
		ChromeFlags: cfg.Lighthouse.ChromeFlags,
		Timeout:     cfg.Lighthouse.Timeout(),
		Stderr:      stderr,
	}
}

// mergeHeaders overlays the JSON object given on the command line on top of
// the configured headers.
func mergeHeaders(base map[string]string, raw string) (map[string]string, error) {
	merged := make(map[string]string, len(base))
	for k, v := range base {
		merged[k] = v
	}
	if raw != "" {
		var extra map[string]string
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			return nil, fmt.Errorf("parsing --headers: %w", err)
		}
		for k, v := range extra {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return nil, nil
	}
	return merged, nil
}

// recordHistory is best effort; the aggregate has already been written.
func recordHistory(ctx context.Context, appDir string, rep *aggregate.Report) {
	store, err := history.Open(appDir)
	if err != nil {
		slog.Warn("could not open history", "err", err)
		return
	}
	defer store.Close()
	if _, err := store.Record(ctx, rep); err != nil {
		slog.Warn("could not record aggregate", "err", err)
	}
}
