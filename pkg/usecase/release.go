package usecase

import (
	"context"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ReleaseGate conditionally invokes deployment once all matrix entries
// have completed. Deployment happens iff the run was triggered by a
// qualifying tag push and the aggregate status is pass.
type ReleaseGate struct {
	deployer interfaces.Deployer
}

// NewReleaseGate creates a gate around the given deployer.
func NewReleaseGate(deployer interfaces.Deployer) *ReleaseGate {
	return &ReleaseGate{deployer: deployer}
}

// Evaluate checks the trigger condition and aggregate status, and invokes
// deployment at most once. It returns whether deployment was invoked.
func (g *ReleaseGate) Evaluate(ctx context.Context, pipeline *model.Pipeline, trigger model.TriggerContext, report *model.RunReport) (bool, error) {
	logger := ctxlog.From(ctx)

	if pipeline.Deploy == nil {
		return false, nil
	}
	if !trigger.IsTag {
		logger.Debug("Release gate closed: not a tag push", "run_id", report.ID)
		return false, nil
	}
	if !pipeline.Deploy.MatchesTag(trigger.Tag) {
		logger.Info("Release gate closed: tag does not match pattern",
			"run_id", report.ID,
			"tag", trigger.Tag,
			"pattern", pipeline.Deploy.TagPattern,
		)
		return false, nil
	}
	if !report.Passed() {
		logger.Info("Release gate closed: matrix did not pass",
			"run_id", report.ID,
			"failed_entries", len(report.Failed()),
		)
		return false, nil
	}

	artifacts, err := filepath.Glob(filepath.Join(pipeline.Workdir, pipeline.Deploy.Artifacts))
	if err != nil {
		return false, goerr.Wrap(err, "invalid deploy artifacts glob",
			goerr.T(types.TagDeploy),
			goerr.V("glob", pipeline.Deploy.Artifacts),
		)
	}

	dep := &interfaces.Deployment{
		IndexURL:  pipeline.Deploy.IndexURL,
		Artifacts: artifacts,
		Tag:       trigger.Tag,
		Commit:    trigger.Commit,
	}

	logger.Info("Release gate open, deploying",
		"run_id", report.ID,
		"tag", trigger.Tag,
		"artifacts", len(artifacts),
		"index_url", pipeline.Deploy.IndexURL,
	)

	if err := g.deployer.Deploy(ctx, dep); err != nil {
		return true, goerr.Wrap(err, "deployment failed",
			goerr.T(types.TagDeploy),
			goerr.V("run_id", report.ID),
			goerr.V("tag", trigger.Tag),
		)
	}

	return true, nil
}
