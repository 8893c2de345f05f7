package usecase

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/utils/async"
)

type webhookUseCase struct {
	pipeline *model.Pipeline
	matrixUC interfaces.MatrixUseCase
	sync     bool
}

// WebhookOption configures the webhook use case.
type WebhookOption func(*webhookUseCase)

// WithSyncRun makes ProcessEvent run the matrix synchronously instead of
// dispatching it. Used by tests.
func WithSyncRun() WebhookOption {
	return func(uc *webhookUseCase) {
		uc.sync = true
	}
}

// NewWebhook creates a WebhookUseCase that triggers matrix runs of the
// given pipeline for incoming push events.
func NewWebhook(pipeline *model.Pipeline, matrixUC interfaces.MatrixUseCase, opts ...WebhookOption) interfaces.WebhookUseCase {
	uc := &webhookUseCase{
		pipeline: pipeline,
		matrixUC: matrixUC,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessEvent turns a push event into a trigger context and starts a
// matrix run. Branch pushes on any branch and tag pushes both trigger;
// reference deletions do not.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.PushEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing push event",
		"id", event.ID,
		"repository", event.Repository,
		"ref", event.Ref,
		"sender", event.Sender,
		"deleted", event.Deleted,
	)

	if event.Deleted {
		logger.Info("Ignoring reference deletion", "ref", event.Ref)
		return nil
	}

	trigger := event.Trigger()

	if uc.sync {
		return uc.runMatrix(ctx, trigger)
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.runMatrix(ctx, trigger)
	})
	return nil
}

func (uc *webhookUseCase) runMatrix(ctx context.Context, trigger model.TriggerContext) error {
	report, err := uc.matrixUC.RunMatrix(ctx, uc.pipeline, trigger)
	if err != nil {
		if sentry.CurrentHub().Client() != nil {
			sentry.CaptureException(err)
		}
		return err
	}

	ctxlog.From(ctx).Info("Triggered run completed",
		"run_id", report.ID,
		"passed", report.Passed(),
		"deployed", report.Deployed,
	)
	return nil
}
