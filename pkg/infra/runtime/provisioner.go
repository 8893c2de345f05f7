// Package runtime provisions isolated execution environments for matrix
// entries by resolving interpreter binaries and assembling the environment
// variable set.
package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Provisioner resolves runtime versions via PATH lookup. It implements
// interfaces.Provisioner.
type Provisioner struct {
	// passthrough lists host environment variables visible to tasks.
	// Everything else must be declared in the pipeline.
	passthrough []string
}

// Option configures the provisioner.
type Option func(*Provisioner)

// WithPassthrough overrides the host variables passed into task
// environments.
func WithPassthrough(names ...string) Option {
	return func(p *Provisioner) {
		p.passthrough = names
	}
}

// New creates a Provisioner.
func New(opts ...Option) *Provisioner {
	p := &Provisioner{
		passthrough: []string{"PATH", "HOME", "LANG"},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision locates the interpreter for the entry's runtime version and
// builds the isolated environment. An unavailable runtime fails this entry
// only.
func (p *Provisioner) Provision(ctx context.Context, pipeline *model.Pipeline, entry model.MatrixEntry) (*model.Environment, error) {
	logger := ctxlog.From(ctx)

	command := pipeline.RuntimeCommandFor(entry.Runtime)
	binPath, err := exec.LookPath(command)
	if err != nil {
		return nil, goerr.Wrap(err, "runtime unavailable",
			goerr.T(types.TagProvision),
			goerr.V("runtime", entry.Runtime),
			goerr.V("command", command),
		)
	}

	tempDir, err := os.MkdirTemp("", "drover-"+entry.Config+"-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create scratch directory",
			goerr.T(types.TagProvision),
			goerr.V("config", entry.Config),
		)
	}

	env := &model.Environment{
		Runtime: entry.Runtime,
		Command: binPath,
		WorkDir: pipeline.Workdir,
		TempDir: tempDir,
		Env:     p.buildEnv(pipeline, entry, binPath, tempDir),
	}

	logger.Debug("Provisioned environment",
		"runtime", entry.Runtime,
		"config", entry.Config,
		"command", binPath,
		"temp_dir", tempDir,
	)

	return env, nil
}

// Cleanup removes the environment's scratch directory.
func (p *Provisioner) Cleanup(ctx context.Context, env *model.Environment) error {
	if env == nil || env.TempDir == "" {
		return nil
	}
	if err := os.RemoveAll(env.TempDir); err != nil {
		return goerr.Wrap(err, "failed to remove scratch directory",
			goerr.V("temp_dir", env.TempDir))
	}
	return nil
}

// buildEnv assembles the task environment as an allowlist: host
// passthrough variables, pipeline variables, entry variables, then the
// profile selector and runtime markers. Later entries win.
func (p *Provisioner) buildEnv(pipeline *model.Pipeline, entry model.MatrixEntry, binPath, tempDir string) []string {
	vars := make(map[string]string)

	for _, name := range p.passthrough {
		if v, ok := os.LookupEnv(name); ok {
			vars[name] = v
		}
	}
	for k, v := range pipeline.Env {
		vars[k] = v
	}
	for k, v := range entry.Env {
		vars[k] = v
	}

	vars[pipeline.ProfileVarName()] = entry.Config
	vars["DROVER_RUNTIME"] = entry.Runtime
	vars["DROVER_RUNTIME_BIN"] = binPath
	vars["TMPDIR"] = tempDir

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, vars[k]))
	}
	return env
}
