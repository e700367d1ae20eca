package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/signalnine/lighthouse-groupie/internal/result"
)

// DefaultChromeFlags asks lighthouse for a headless chrome.
const DefaultChromeFlags = "--headless"

// RunOpts identifies one lighthouse invocation.
type RunOpts struct {
	AppDir    string
	Domain    string
	Target    string
	Iteration int
	Headers   map[string]string
}

// Runner performs a single lighthouse run and returns the result file path.
type Runner interface {
	Run(ctx context.Context, opts *RunOpts) (string, error)
}

// BuildArgs returns the lighthouse arguments for one run.
func BuildArgs(target, outputPath, chromeFlags string, headers map[string]string) ([]string, error) {
	if chromeFlags == "" {
		chromeFlags = DefaultChromeFlags
	}
	args := []string{
		target,
		"--output=json",
		"--output-path=" + outputPath,
		"--chrome-flags=" + chromeFlags,
	}
	if len(headers) > 0 {
		data, err := json.Marshal(headers)
		if err != nil {
			return nil, fmt.Errorf("encoding extra headers: %w", err)
		}
		args = append(args, "--extra-headers="+string(data))
	}
	return args, nil
}

// ExecRunner runs a locally installed lighthouse binary.
type ExecRunner struct {
	Binary      string
	ChromeFlags string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
	// Stderr receives the tool's error stream when it fails.
	Stderr io.Writer
	Now    func() time.Time
}

func (r *ExecRunner) Run(ctx context.Context, opts *RunOpts) (string, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	outputPath := result.RunFilePath(opts.AppDir, opts.Domain, opts.Iteration, now())
	args, err := BuildArgs(opts.Target, outputPath, r.ChromeFlags, opts.Headers)
	if err != nil {
		return "", err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	slog.Debug("running lighthouse", "itr", opts.Iteration, "target", opts.Target, "file", outputPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary(), args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", &result.Error{
				Kind: result.ExternalTool,
				Run:  opts.Iteration,
				Err:  fmt.Errorf("executing %s, make sure it's installed and accessible in PATH: %w", r.binary(), err),
			}
		}
		r.stderr().Write(stderr.Bytes())
		if ctx.Err() != nil {
			return "", &result.Error{Kind: result.ExternalTool, Path: outputPath, Run: opts.Iteration,
				Err: fmt.Errorf("lighthouse did not finish: %w", ctx.Err())}
		}
		slog.Error("failed to run lighthouse, make sure it's installed or that used option flags haven't been renamed")
		return "", &result.Error{Kind: result.ExternalTool, Path: outputPath, Run: opts.Iteration,
			Err: fmt.Errorf("lighthouse exited with status %d", exitErr.ExitCode())}
	}
	return outputPath, nil
}

func (r *ExecRunner) binary() string {
	if r.Binary == "" {
		return "lighthouse"
	}
	return r.Binary
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

// RunAll performs count sequential runs and returns their result paths in
// run order. The first failure stops the loop and no paths are returned.
// onDone, if set, is called after every successful run.
func RunAll(ctx context.Context, r Runner, base RunOpts, count int, onDone func(iteration int)) ([]string, error) {
	outputs := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts := base
		opts.Iteration = i
		path, err := r.Run(ctx, &opts)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
		if onDone != nil {
			onDone(i)
		}
	}
	return outputs, nil
}
