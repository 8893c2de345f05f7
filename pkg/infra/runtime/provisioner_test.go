package runtime_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/infra/runtime"
	"github.com/m-mizutani/goerr/v2"
)

func testPipeline(runtimeCommand string) *model.Pipeline {
	return &model.Pipeline{
		Name:           "test",
		Test:           "true",
		Workdir:        os.TempDir(),
		RuntimeCommand: runtimeCommand,
		Env:            map[string]string{"PIPELINE_VAR": "1"},
	}
}

func TestProvisioner_Provision(t *testing.T) {
	ctx := context.Background()
	p := runtime.New()

	// "sh" is present on any test host
	pipeline := testPipeline("sh")
	entry := model.MatrixEntry{Runtime: "3.7", Config: "py37", Env: map[string]string{"ENTRY_VAR": "2"}}

	env, err := p.Provision(ctx, pipeline, entry)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	defer func() {
		if err := p.Cleanup(ctx, env); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}()

	if env.Command == "" {
		t.Error("Command should be resolved to an absolute path")
	}
	if env.WorkDir != pipeline.Workdir {
		t.Errorf("WorkDir = %q, want %q", env.WorkDir, pipeline.Workdir)
	}
	if env.TempDir == "" {
		t.Error("TempDir should be created")
	}
	if _, err := os.Stat(env.TempDir); err != nil {
		t.Errorf("TempDir should exist: %v", err)
	}

	wantVars := []string{"TOXENV=py37", "DROVER_RUNTIME=3.7", "PIPELINE_VAR=1", "ENTRY_VAR=2"}
	for _, want := range wantVars {
		found := false
		for _, v := range env.Env {
			if v == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("environment is missing %q: %v", want, env.Env)
		}
	}
}

func TestProvisioner_ProvisionUnavailableRuntime(t *testing.T) {
	ctx := context.Background()
	p := runtime.New()

	pipeline := testPipeline("drover-no-such-interpreter-{version}")
	entry := model.MatrixEntry{Runtime: "9.9", Config: "py99"}

	_, err := p.Provision(ctx, pipeline, entry)
	if err == nil {
		t.Fatal("Provision() should fail for an unavailable runtime")
	}
	if !goerr.HasTag(err, types.TagProvision) {
		t.Errorf("error should carry the provision tag: %v", err)
	}
	if !strings.Contains(err.Error(), "runtime unavailable") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestProvisioner_CleanupRemovesTempDir(t *testing.T) {
	ctx := context.Background()
	p := runtime.New()

	env, err := p.Provision(ctx, testPipeline("sh"), model.MatrixEntry{Runtime: "3.7", Config: "py37"})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if err := p.Cleanup(ctx, env); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(env.TempDir); !os.IsNotExist(err) {
		t.Errorf("TempDir should be removed, stat err = %v", err)
	}

	// nil environment is a no-op
	if err := p.Cleanup(ctx, nil); err != nil {
		t.Errorf("Cleanup(nil) error = %v", err)
	}
}
