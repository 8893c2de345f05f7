// Package publish uploads result artifacts to a reporting surface keyed by
// a human-readable title.
package publish

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// metadata is stored next to each published artifact.
type metadata struct {
	Title       string    `json:"title"`
	Config      string    `json:"config"`
	Runtime     string    `json:"runtime"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
}

// LocalPublisher copies result artifacts into a report directory, one
// subdirectory per run.
type LocalPublisher struct {
	dir string
}

// NewLocal creates a publisher writing under dir.
func NewLocal(dir string) *LocalPublisher {
	return &LocalPublisher{dir: dir}
}

// Publish stores the entry's artifact as <dir>/<runID>/<title slug> with a
// metadata sidecar.
func (p *LocalPublisher) Publish(ctx context.Context, runID, title string, result *model.EntryResult) error {
	if result.ArtifactPath == "" {
		return goerr.New("entry has no result artifact",
			goerr.T(types.TagPublish),
			goerr.V("config", result.Config),
		)
	}

	runDir := filepath.Join(p.dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create report directory",
			goerr.T(types.TagPublish),
			goerr.V("dir", runDir),
		)
	}

	name := Slug(title) + filepath.Ext(result.ArtifactPath)
	dest := filepath.Join(runDir, name)
	if err := copyFile(result.ArtifactPath, dest); err != nil {
		return goerr.Wrap(err, "failed to copy artifact",
			goerr.T(types.TagPublish),
			goerr.V("src", result.ArtifactPath),
			goerr.V("dest", dest),
		)
	}

	meta := metadata{
		Title:       title,
		Config:      result.Config,
		Runtime:     result.Runtime,
		Status:      string(result.Status),
		PublishedAt: time.Now(),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode metadata", goerr.T(types.TagPublish))
	}
	if err := os.WriteFile(dest+".json", metaData, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write metadata",
			goerr.T(types.TagPublish),
			goerr.V("dest", dest+".json"),
		)
	}

	ctxlog.From(ctx).Debug("Published result artifact",
		"title", title,
		"config", result.Config,
		"dest", dest,
	)

	return nil
}

// Slug converts a report title into a filesystem- and object-safe name.
func Slug(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, title)

	for strings.Contains(mapped, "--") {
		mapped = strings.ReplaceAll(mapped, "--", "-")
	}
	return strings.Trim(mapped, "-")
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
