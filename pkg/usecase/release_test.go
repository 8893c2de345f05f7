package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func passingReport() *model.RunReport {
	return &model.RunReport{
		ID: "run-1",
		Entries: []*model.EntryResult{
			{Config: "py37", Runtime: "3.7", Status: model.StatusPass},
		},
	}
}

func failingReport() *model.RunReport {
	return &model.RunReport{
		ID: "run-2",
		Entries: []*model.EntryResult{
			{Config: "py27", Runtime: "2.7", Status: model.StatusPass},
			{Config: "py36", Runtime: "3.6", Status: model.StatusFail, ExitCode: 1},
		},
	}
}

func gatePipeline(t *testing.T, tagPattern string) *model.Pipeline {
	t.Helper()
	workdir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(workdir, "dist"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(workdir, "dist", "realalg-1.0.tar.gz"), []byte("sdist"), 0o644); err != nil {
		t.Fatal(err)
	}

	return &model.Pipeline{
		Name:    "realalg",
		Workdir: workdir,
		Test:    "tox",
		Deploy: &model.DeploySpec{
			IndexURL:   "https://upload.example.org/legacy/",
			Artifacts:  "dist/*",
			TagPattern: tagPattern,
		},
	}
}

func TestReleaseGate_Evaluate(t *testing.T) {
	tests := []struct {
		name         string
		trigger      model.TriggerContext
		report       *model.RunReport
		tagPattern   string
		wantDeployed bool
	}{
		{
			name:         "tag push with passing matrix deploys",
			trigger:      model.TriggerContext{IsTag: true, Tag: "v1.0.0"},
			report:       passingReport(),
			tagPattern:   "v*",
			wantDeployed: true,
		},
		{
			name:         "branch push never deploys",
			trigger:      model.TriggerContext{Branch: "main"},
			report:       passingReport(),
			tagPattern:   "v*",
			wantDeployed: false,
		},
		{
			name:         "tag push with one failing entry must not deploy",
			trigger:      model.TriggerContext{IsTag: true, Tag: "v1.0.0"},
			report:       failingReport(),
			tagPattern:   "v*",
			wantDeployed: false,
		},
		{
			name:         "tag not matching pattern does not deploy",
			trigger:      model.TriggerContext{IsTag: true, Tag: "nightly"},
			report:       passingReport(),
			tagPattern:   "v*",
			wantDeployed: false,
		},
		{
			name:         "empty pattern accepts any tag",
			trigger:      model.TriggerContext{IsTag: true, Tag: "release-1"},
			report:       passingReport(),
			tagPattern:   "",
			wantDeployed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deployer := &countingDeployer{}
			gate := usecase.NewReleaseGate(deployer)
			pipeline := gatePipeline(t, tt.tagPattern)

			deployed, err := gate.Evaluate(context.Background(), pipeline, tt.trigger, tt.report)
			gt.NoError(t, err)

			gt.V(t, deployed).Equal(tt.wantDeployed)
			if tt.wantDeployed {
				gt.V(t, deployer.calls).Equal(1)
				gt.V(t, len(deployer.last.Artifacts)).Equal(1)
				gt.V(t, deployer.last.Tag).Equal(tt.trigger.Tag)
			} else {
				gt.V(t, deployer.calls).Equal(0)
			}
		})
	}
}

func TestReleaseGate_NoDeploySpec(t *testing.T) {
	deployer := &countingDeployer{}
	gate := usecase.NewReleaseGate(deployer)

	pipeline := &model.Pipeline{Name: "realalg", Test: "tox"}
	trigger := model.TriggerContext{IsTag: true, Tag: "v1.0.0"}

	deployed, err := gate.Evaluate(context.Background(), pipeline, trigger, passingReport())
	gt.NoError(t, err)
	gt.V(t, deployed).Equal(false)
	gt.V(t, deployer.calls).Equal(0)
}
