package publish

import (
	"context"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// GCSPublisher uploads result artifacts to a Google Cloud Storage bucket
// under <prefix>/<runID>/<title slug>.
type GCSPublisher struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSOption configures the GCS publisher.
type GCSOption func(*GCSPublisher)

// WithObjectPrefix sets a fixed object name prefix.
func WithObjectPrefix(prefix string) GCSOption {
	return func(p *GCSPublisher) {
		p.prefix = prefix
	}
}

// NewGCS creates a publisher for the given bucket using application
// default credentials.
func NewGCS(ctx context.Context, bucket string, opts ...GCSOption) (*GCSPublisher, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client",
			goerr.T(types.TagPublish),
			goerr.V("bucket", bucket),
		)
	}

	p := &GCSPublisher{
		client: client,
		bucket: bucket,
		prefix: "reports",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish streams the entry's artifact into the bucket.
func (p *GCSPublisher) Publish(ctx context.Context, runID, title string, result *model.EntryResult) error {
	if result.ArtifactPath == "" {
		return goerr.New("entry has no result artifact",
			goerr.T(types.TagPublish),
			goerr.V("config", result.Config),
		)
	}

	in, err := os.Open(result.ArtifactPath)
	if err != nil {
		return goerr.Wrap(err, "failed to open artifact",
			goerr.T(types.TagPublish),
			goerr.V("path", result.ArtifactPath),
		)
	}
	defer in.Close()

	name := path.Join(p.prefix, runID, Slug(title)+path.Ext(result.ArtifactPath))
	w := p.client.Bucket(p.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/xml"
	w.Metadata = map[string]string{
		"title":   title,
		"config":  result.Config,
		"runtime": result.Runtime,
		"status":  string(result.Status),
	}

	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to upload artifact",
			goerr.T(types.TagPublish),
			goerr.V("bucket", p.bucket),
			goerr.V("object", name),
		)
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize upload",
			goerr.T(types.TagPublish),
			goerr.V("bucket", p.bucket),
			goerr.V("object", name),
		)
	}

	ctxlog.From(ctx).Debug("Published result artifact to GCS",
		"bucket", p.bucket,
		"object", name,
		"config", result.Config,
	)

	return nil
}

// Close releases the underlying storage client.
func (p *GCSPublisher) Close() error {
	return p.client.Close()
}
