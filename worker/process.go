package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// invocation is one worker process launch.
type invocation struct {
	Location
	Args []string
}

func (inv invocation) command() string {
	return strings.Join(inv.Args, " ")
}

// processResult is what a finished process left behind.
type processResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// processRunner abstracts process execution for testability.
type processRunner interface {
	Run(ctx context.Context, inv invocation) (processResult, error)
}

// execRunner spawns the interpreter with -m stt_backend.
type execRunner struct {
	stderr io.Writer
}

const pipeDrainDelay = 5 * time.Second

func (r *execRunner) Run(ctx context.Context, inv invocation) (processResult, error) {
	if err := inv.Check(); err != nil {
		return processResult{}, err
	}

	args := append([]string{"-m", "stt_backend"}, inv.Args...)
	cmd := exec.CommandContext(ctx, inv.Python, args...)
	cmd.Dir = inv.Root
	cmd.Env = append(os.Environ(), "PYTHONPATH="+inv.PythonPath)
	cmd.WaitDelay = pipeDrainDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.stderr)
	}

	err := cmd.Run()
	res := processResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, err
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

func executableExists(path string) bool {
	if !strings.ContainsRune(path, os.PathSeparator) && !strings.ContainsRune(path, '/') {
		_, err := exec.LookPath(path)
		return err == nil
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
