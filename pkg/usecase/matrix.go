package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"golang.org/x/sync/errgroup"
)

// matrixUseCase schedules matrix entries, aggregates their results, and
// hands the report to the release gate. Entries are independent: a failure
// in one never aborts the others.
type matrixUseCase struct {
	provisioner interfaces.Provisioner
	runner      interfaces.TaskRunner
	publisher   interfaces.Publisher
	gate        *ReleaseGate
	notifier    interfaces.Notifier
	concurrency int
}

// MatrixOption configures the matrix use case.
type MatrixOption func(*matrixUseCase)

// WithPublisher enables result publishing for test-like entries.
func WithPublisher(p interfaces.Publisher) MatrixOption {
	return func(uc *matrixUseCase) {
		uc.publisher = p
	}
}

// WithReleaseGate enables tag-gated deployment after the run.
func WithReleaseGate(gate *ReleaseGate) MatrixOption {
	return func(uc *matrixUseCase) {
		uc.gate = gate
	}
}

// WithNotifier enables run summary notifications.
func WithNotifier(n interfaces.Notifier) MatrixOption {
	return func(uc *matrixUseCase) {
		uc.notifier = n
	}
}

// WithConcurrency bounds the number of entries running at once. Zero or
// negative means unbounded.
func WithConcurrency(n int) MatrixOption {
	return func(uc *matrixUseCase) {
		uc.concurrency = n
	}
}

// NewMatrix creates a MatrixUseCase.
func NewMatrix(provisioner interfaces.Provisioner, runner interfaces.TaskRunner, opts ...MatrixOption) interfaces.MatrixUseCase {
	uc := &matrixUseCase{
		provisioner: provisioner,
		runner:      runner,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RunMatrix runs every matrix entry, computes the aggregate status, and
// evaluates the release gate. The report is always returned; err is
// non-nil only for deployment failures.
func (uc *matrixUseCase) RunMatrix(ctx context.Context, pipeline *model.Pipeline, trigger model.TriggerContext) (*model.RunReport, error) {
	logger := ctxlog.From(ctx)

	report := &model.RunReport{
		ID:        uuid.NewString(),
		Pipeline:  pipeline.Name,
		Trigger:   trigger,
		Entries:   make([]*model.EntryResult, len(pipeline.Matrix)),
		StartedAt: time.Now(),
	}

	logger.Info("Starting matrix run",
		"run_id", report.ID,
		"pipeline", pipeline.Name,
		"entries", len(pipeline.Matrix),
		"trigger", trigger.Ref(),
	)

	g := &errgroup.Group{}
	if uc.concurrency > 0 {
		g.SetLimit(uc.concurrency)
	}

	for i, entry := range pipeline.Matrix {
		g.Go(func() error {
			report.Entries[i] = uc.runEntry(ctx, pipeline, entry, report.ID)
			return nil
		})
	}

	// Workers never return errors; failures live in the entry results.
	_ = g.Wait()
	report.FinishedAt = time.Now()

	logger.Info("Matrix run finished",
		"run_id", report.ID,
		"passed", report.Passed(),
		"failed_entries", len(report.Failed()),
	)

	var deployErr error
	if uc.gate != nil {
		report.Deployed, deployErr = uc.gate.Evaluate(ctx, pipeline, trigger, report)
	}

	if uc.notifier != nil {
		if err := uc.notifier.NotifyRun(ctx, report); err != nil {
			logger.Warn("Failed to send run notification",
				"run_id", report.ID,
				"error", err,
			)
		}
	}

	return report, deployErr
}

// runEntry executes the full lifecycle of one matrix entry: provision →
// run → publish → discard. Any failure is confined to the returned result.
func (uc *matrixUseCase) runEntry(ctx context.Context, pipeline *model.Pipeline, entry model.MatrixEntry, runID string) *model.EntryResult {
	logger := ctxlog.From(ctx)

	env, err := uc.provisioner.Provision(ctx, pipeline, entry)
	if err != nil {
		logger.Error("Failed to provision environment",
			"config", entry.Config,
			"runtime", entry.Runtime,
			"error", err,
		)
		return &model.EntryResult{
			Config:        entry.Config,
			Runtime:       entry.Runtime,
			Status:        model.StatusFail,
			FailureReason: err.Error(),
		}
	}
	defer func() {
		if err := uc.provisioner.Cleanup(ctx, env); err != nil {
			logger.Warn("Failed to clean up environment",
				"config", entry.Config,
				"error", err,
			)
		}
	}()

	spec := &model.TaskSpec{
		Entry:        entry,
		Commands:     pipeline.CommandsFor(entry),
		ArtifactPath: pipeline.Artifact,
	}

	result, err := uc.runner.Run(ctx, env, spec)
	if err != nil {
		logger.Error("Task execution failed",
			"config", entry.Config,
			"error", err,
		)
		if result == nil {
			result = &model.EntryResult{
				Config:  entry.Config,
				Runtime: entry.Runtime,
			}
		}
		result.Status = model.StatusFail
		result.FailureReason = err.Error()
		return result
	}

	uc.publishEntry(ctx, pipeline, entry, runID, result)

	return result
}

// publishEntry uploads the result artifact when the entry's configuration
// name matches the test-like publish pattern; otherwise skips silently.
// Publish failures degrade to warnings.
func (uc *matrixUseCase) publishEntry(ctx context.Context, pipeline *model.Pipeline, entry model.MatrixEntry, runID string, result *model.EntryResult) {
	if uc.publisher == nil || !pipeline.Publish.Matches(entry.Config) {
		return
	}
	if result.ArtifactPath == "" {
		ctxlog.From(ctx).Warn("No result artifact to publish",
			"config", entry.Config,
			"artifact", pipeline.Artifact,
		)
		return
	}

	title := pipeline.Publish.RenderTitle(entry)
	if err := uc.publisher.Publish(ctx, runID, title, result); err != nil {
		ctxlog.From(ctx).Warn("Failed to publish result artifact",
			"config", entry.Config,
			"title", title,
			"error", err,
		)
		return
	}
	result.Published = true
}
