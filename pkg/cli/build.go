package cli

import (
	"context"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/infra/deploy"
	"github.com/m-mizutani/drover/pkg/infra/executor"
	"github.com/m-mizutani/drover/pkg/infra/notify"
	"github.com/m-mizutani/drover/pkg/infra/runtime"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
)

// buildMatrixUseCase wires the provisioner, task runner, publisher,
// release gate and notifier from CLI configuration. Shared by the run and
// serve commands.
func buildMatrixUseCase(
	ctx context.Context,
	publishCfg *config.Publish,
	deployCfg *config.Deploy,
	notifyCfg *config.Notify,
	concurrency int,
) (interfaces.MatrixUseCase, error) {
	publisher, err := publishCfg.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure publisher")
	}

	opts := []usecase.MatrixOption{
		usecase.WithPublisher(publisher),
		usecase.WithConcurrency(concurrency),
	}

	if deployCfg.Enabled() {
		creds, err := deployCfg.Configure()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure deploy credentials")
		}
		gate := usecase.NewReleaseGate(deploy.NewRegistryClient(creds))
		opts = append(opts, usecase.WithReleaseGate(gate))
	}

	if notifyCfg.SlackWebhookURL != "" {
		opts = append(opts, usecase.WithNotifier(notify.NewSlack(notifyCfg.SlackWebhookURL)))
	}

	return usecase.NewMatrix(runtime.New(), executor.New(), opts...), nil
}
