package config

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/infra/publish"
	"github.com/urfave/cli/v3"
)

// Publish holds result publisher configuration
type Publish struct {
	ReportDir string
	GCSBucket string
}

// Flags returns CLI flags for publisher configuration
func (c *Publish) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "report-dir",
			Usage:       "Local directory for published result artifacts",
			Value:       "reports",
			Destination: &c.ReportDir,
			Sources:     cli.EnvVars("DROVER_REPORT_DIR"),
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Publish result artifacts to this GCS bucket instead of the local report dir",
			Destination: &c.GCSBucket,
			Sources:     cli.EnvVars("DROVER_GCS_BUCKET"),
		},
	}
}

// Configure builds the publisher backend: GCS when a bucket is set, the
// local report directory otherwise.
func (c *Publish) Configure(ctx context.Context) (interfaces.Publisher, error) {
	if c.GCSBucket != "" {
		return publish.NewGCS(ctx, c.GCSBucket)
	}
	return publish.NewLocal(c.ReportDir), nil
}
