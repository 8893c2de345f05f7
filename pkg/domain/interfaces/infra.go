package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// Provisioner prepares isolated execution environments for matrix entries.
type Provisioner interface {
	// Provision resolves the runtime for the entry and builds its
	// environment. A failure is fatal to this entry only.
	Provision(ctx context.Context, pipeline *model.Pipeline, entry model.MatrixEntry) (*model.Environment, error)

	// Cleanup releases the environment's scratch resources.
	Cleanup(ctx context.Context, env *model.Environment) error
}

// TaskRunner executes a fixed command sequence in a provisioned
// environment. A non-zero exit is reported through the result, not as an
// error; errors indicate the command could not be run at all.
type TaskRunner interface {
	Run(ctx context.Context, env *model.Environment, spec *model.TaskSpec) (*model.EntryResult, error)
}

// Publisher uploads a result artifact to a reporting surface keyed by a
// human-readable title.
type Publisher interface {
	Publish(ctx context.Context, runID, title string, result *model.EntryResult) error
}

// Deployment is a single credential-gated package-index upload.
type Deployment struct {
	IndexURL  string
	Artifacts []string // resolved file paths to upload
	Tag       string
	Commit    string
}

// Deployer performs the deployment action behind the release gate.
type Deployer interface {
	Deploy(ctx context.Context, dep *Deployment) error
}

// Notifier delivers a run summary to a messaging surface. Notification
// failures never fail the run.
type Notifier interface {
	NotifyRun(ctx context.Context, report *model.RunReport) error
}
