package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// MatrixUseCase runs the full matrix of a pipeline and returns the
// aggregated report. The returned report is non-nil even when err is not.
type MatrixUseCase interface {
	RunMatrix(ctx context.Context, pipeline *model.Pipeline, trigger model.TriggerContext) (*model.RunReport, error)
}

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a push event received by the controller
	ProcessEvent(ctx context.Context, event *model.PushEvent) error
}
