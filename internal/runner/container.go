package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/signalnine/lighthouse-groupie/internal/docker"
	"github.com/signalnine/lighthouse-groupie/internal/result"
)

// DockerRunner runs lighthouse inside a container. The domain directory is
// bind-mounted so the result file lands in the same place as a local run.
type DockerRunner struct {
	Image       string
	ChromeFlags string
	Timeout     time.Duration
	Stderr      io.Writer
	Now         func() time.Time
}

func (r *DockerRunner) Run(ctx context.Context, opts *RunOpts) (string, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	outputPath := result.RunFilePath(opts.AppDir, opts.Domain, opts.Iteration, now())
	resultsDir, err := filepath.Abs(filepath.Dir(outputPath))
	if err != nil {
		return "", fmt.Errorf("resolving results dir: %w", err)
	}
	containerPath := docker.ResultsMount + "/" + filepath.Base(outputPath)
	args, err := BuildArgs(opts.Target, containerPath, r.ChromeFlags, opts.Headers)
	if err != nil {
		return "", err
	}

	slog.Debug("running lighthouse container", "itr", opts.Iteration, "image", r.Image, "target", opts.Target, "file", outputPath)

	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	res, err := docker.RunContainer(ctx, &docker.RunOpts{
		Image:      r.Image,
		Entrypoint: []string{"lighthouse"},
		Command:    args,
		ResultsDir: resultsDir,
		Timeout:    r.Timeout,
		UserID:     fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		LogWriter:  stderr,
	})
	if err != nil {
		return "", &result.Error{Kind: result.ExternalTool, Run: opts.Iteration, Err: fmt.Errorf("running container: %w", err)}
	}
	if res.TimedOut {
		return "", &result.Error{Kind: result.ExternalTool, Path: outputPath, Run: opts.Iteration,
			Err: fmt.Errorf("lighthouse container timed out after %s", res.Duration.Round(time.Second))}
	}
	if res.ExitCode != 0 {
		return "", &result.Error{Kind: result.ExternalTool, Path: outputPath, Run: opts.Iteration,
			Err: fmt.Errorf("lighthouse container exited with status %d", res.ExitCode)}
	}
	return outputPath, nil
}
