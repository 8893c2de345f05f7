package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/usecase"
)

// recordingMatrixUC captures triggers instead of running anything.
type recordingMatrixUC struct {
	mu       sync.Mutex
	triggers []model.TriggerContext
}

func (uc *recordingMatrixUC) RunMatrix(_ context.Context, p *model.Pipeline, trigger model.TriggerContext) (*model.RunReport, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.triggers = append(uc.triggers, trigger)
	return &model.RunReport{ID: "run-1", Pipeline: p.Name, Trigger: trigger}, nil
}

func (uc *recordingMatrixUC) Triggers() []model.TriggerContext {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]model.TriggerContext(nil), uc.triggers...)
}

func TestWebhookUseCase_ProcessEvent(t *testing.T) {
	pipeline := &model.Pipeline{Name: "realalg", Test: "tox"}

	tests := []struct {
		name        string
		event       *model.PushEvent
		wantTrigger *model.TriggerContext
	}{
		{
			name: "branch push triggers a run",
			event: &model.PushEvent{
				ID:         "delivery-1",
				Repository: "owner/realalg",
				Ref:        "refs/heads/main",
				Commit:     "abc123",
				Sender:     "dev",
				ReceivedAt: time.Now(),
			},
			wantTrigger: &model.TriggerContext{Branch: "main", Commit: "abc123"},
		},
		{
			name: "tag push triggers a tag run",
			event: &model.PushEvent{
				ID:         "delivery-2",
				Repository: "owner/realalg",
				Ref:        "refs/tags/v1.0.0",
				Commit:     "def456",
				Sender:     "dev",
				ReceivedAt: time.Now(),
			},
			wantTrigger: &model.TriggerContext{IsTag: true, Tag: "v1.0.0", Commit: "def456"},
		},
		{
			name: "reference deletion is ignored",
			event: &model.PushEvent{
				ID:         "delivery-3",
				Repository: "owner/realalg",
				Ref:        "refs/heads/old-branch",
				Deleted:    true,
				ReceivedAt: time.Now(),
			},
			wantTrigger: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matrixUC := &recordingMatrixUC{}
			uc := usecase.NewWebhook(pipeline, matrixUC, usecase.WithSyncRun())

			if err := uc.ProcessEvent(context.Background(), tt.event); err != nil {
				t.Fatalf("ProcessEvent() error = %v", err)
			}

			triggers := matrixUC.Triggers()
			if tt.wantTrigger == nil {
				if len(triggers) != 0 {
					t.Errorf("run should not be triggered, got %+v", triggers)
				}
				return
			}

			if len(triggers) != 1 {
				t.Fatalf("triggers = %d, want 1", len(triggers))
			}
			if triggers[0] != *tt.wantTrigger {
				t.Errorf("trigger = %+v, want %+v", triggers[0], *tt.wantTrigger)
			}
		})
	}
}
