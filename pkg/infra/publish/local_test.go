package publish_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/publish"
)

func TestLocalPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	workdir := t.TempDir()
	artifact := filepath.Join(workdir, "results.xml")
	if err := os.WriteFile(artifact, []byte("<testsuite/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	reportDir := t.TempDir()
	p := publish.NewLocal(reportDir)

	result := &model.EntryResult{
		Config:       "py37",
		Runtime:      "3.7",
		Status:       model.StatusPass,
		ArtifactPath: artifact,
	}

	if err := p.Publish(ctx, "run-1", "Test results for Python 3.7", result); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	dest := filepath.Join(reportDir, "run-1", "test-results-for-python-3.7.xml")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("published artifact missing: %v", err)
	}
	if string(data) != "<testsuite/>" {
		t.Errorf("published artifact content = %q", data)
	}

	metaData, err := os.ReadFile(dest + ".json")
	if err != nil {
		t.Fatalf("metadata sidecar missing: %v", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(metaData, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["config"] != "py37" || meta["status"] != "pass" {
		t.Errorf("unexpected metadata: %v", meta)
	}
}

func TestLocalPublisher_PublishWithoutArtifact(t *testing.T) {
	p := publish.NewLocal(t.TempDir())

	result := &model.EntryResult{Config: "py36", Runtime: "3.6", Status: model.StatusFail}
	if err := p.Publish(context.Background(), "run-1", "Test results for Python 3.6", result); err == nil {
		t.Error("Publish() should fail when the entry has no artifact")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Test results for Python 3.7", want: "test-results-for-python-3.7"},
		{in: "py37", want: "py37"},
		{in: "  spaces  &&  symbols!  ", want: "spaces-symbols"},
		{in: "snake_case-kept.intact", want: "snake_case-kept.intact"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := publish.Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
