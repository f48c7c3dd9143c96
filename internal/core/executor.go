package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mechci/internal/config"
)

// Executor runs individual pipeline steps through the shell.
type Executor struct {
	// Timeout bounds a single step. Zero means no bound.
	Timeout time.Duration
}

func NewExecutor() *Executor {
	return &Executor{Timeout: 5 * time.Minute}
}

// RunStep executes one run step with sh -c in dir and returns its
// combined output. Checkout steps never reach the shell: the local
// runner operates on a working tree that is already present.
func (e *Executor) RunStep(ctx context.Context, dir string, step config.Step) (string, error) {
	if step.Checkout {
		return "checkout: working tree already present\n", nil
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	workDir, err := resolveDir(dir)
	if err != nil {
		return "", fmt.Errorf("working directory %s: %w", dir, err)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", step.Command)
	cmd.Dir = workDir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err = cmd.Run()
	return out.String(), err
}

// resolveDir expands a leading ~ and creates the directory when it
// does not exist yet. Steps never run in the runner's own cwd by
// accident: an unusable working directory fails the step.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	case !info.IsDir():
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}
