// Package executor runs the fixed command sequence of a matrix entry in a
// provisioned environment.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Executor implements interfaces.TaskRunner with "sh -c" invocations.
// Commands run sequentially; the first non-zero exit fails the entry and
// stops the sequence. Sibling entries are never affected.
type Executor struct {
	shell string
}

// New creates an Executor.
func New() *Executor {
	return &Executor{shell: "sh"}
}

// Run executes the task's command sequence and collects the entry result.
// A non-zero exit yields a failed result, not an error; errors mean a
// command could not be started at all.
func (e *Executor) Run(ctx context.Context, env *model.Environment, spec *model.TaskSpec) (*model.EntryResult, error) {
	logger := ctxlog.From(ctx)
	start := time.Now()

	result := &model.EntryResult{
		Config:  spec.Entry.Config,
		Runtime: spec.Entry.Runtime,
		Status:  model.StatusPass,
	}

	var output bytes.Buffer
	for _, command := range spec.Commands {
		logger.Debug("Running command",
			"config", spec.Entry.Config,
			"command", command,
		)

		exitCode, err := e.runCommand(ctx, env, command, &output)
		if err != nil {
			result.Duration = time.Since(start)
			result.Output = output.Bytes()
			return result, goerr.Wrap(err, "failed to start command",
				goerr.T(types.TagTask),
				goerr.V("config", spec.Entry.Config),
				goerr.V("command", command),
			)
		}
		if exitCode != 0 {
			result.Status = model.StatusFail
			result.ExitCode = exitCode
			result.FailedCommand = command
			break
		}
	}

	result.Duration = time.Since(start)
	result.Output = output.Bytes()
	result.ArtifactPath = e.locateArtifact(env, spec)

	logger.Info("Task finished",
		"config", spec.Entry.Config,
		"runtime", spec.Entry.Runtime,
		"status", result.Status,
		"exit_code", result.ExitCode,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// runCommand executes one command line, returning its exit code. The
// command runs in its own process group so the whole tree can be killed on
// context cancellation.
func (e *Executor) runCommand(ctx context.Context, env *model.Environment, command string, output *bytes.Buffer) (int, error) {
	cmd := exec.Command(e.shell, "-c", command)
	cmd.Dir = env.WorkDir
	cmd.Env = env.Env
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			// Negative PID kills the whole process group.
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return 0, ctx.Err()

	case err := <-done:
		if err == nil {
			return 0, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
}

// locateArtifact resolves the result artifact path if the task produced
// one.
func (e *Executor) locateArtifact(env *model.Environment, spec *model.TaskSpec) string {
	if spec.ArtifactPath == "" {
		return ""
	}
	path := spec.ArtifactPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(env.WorkDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
