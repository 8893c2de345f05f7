package model_test

import (
	"testing"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

func TestTriggerFromRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want model.TriggerContext
	}{
		{
			name: "branch push",
			ref:  "refs/heads/main",
			want: model.TriggerContext{Branch: "main", Commit: "abc123"},
		},
		{
			name: "tag push",
			ref:  "refs/tags/v1.2.0",
			want: model.TriggerContext{IsTag: true, Tag: "v1.2.0", Commit: "abc123"},
		},
		{
			name: "nested branch name",
			ref:  "refs/heads/feature/matrix",
			want: model.TriggerContext{Branch: "feature/matrix", Commit: "abc123"},
		},
		{
			name: "bare name treated as branch",
			ref:  "main",
			want: model.TriggerContext{Branch: "main", Commit: "abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.TriggerFromRef(tt.ref, "abc123")
			if got != tt.want {
				t.Errorf("TriggerFromRef(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestTriggerContext_Ref(t *testing.T) {
	tag := model.TriggerContext{IsTag: true, Tag: "v1.0.0"}
	if got := tag.Ref(); got != "refs/tags/v1.0.0" {
		t.Errorf("Ref() = %q", got)
	}

	branch := model.TriggerContext{Branch: "main"}
	if got := branch.Ref(); got != "refs/heads/main" {
		t.Errorf("Ref() = %q", got)
	}
}
