package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/pipeline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdRun() *cli.Command {
	var (
		pipelinePath string
		branch       string
		tag          string
		commit       string
		concurrency  int64

		publishCfg config.Publish
		deployCfg  config.Deploy
		notifyCfg  config.Notify
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "pipeline",
			Aliases:     []string{"f"},
			Usage:       "Pipeline definition file",
			Value:       "drover.yml",
			Destination: &pipelinePath,
			Sources:     cli.EnvVars("DROVER_PIPELINE"),
		},
		&cli.StringFlag{
			Name:        "branch",
			Usage:       "Branch name of the simulated push trigger",
			Value:       "main",
			Destination: &branch,
		},
		&cli.StringFlag{
			Name:        "tag",
			Usage:       "Tag name; when set the run is treated as a tag push",
			Destination: &tag,
		},
		&cli.StringFlag{
			Name:        "commit",
			Usage:       "Commit SHA under test",
			Destination: &commit,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Maximum matrix entries running at once, 0 for unbounded",
			Value:       0,
			Destination: &concurrency,
			Sources:     cli.EnvVars("DROVER_CONCURRENCY"),
		},
	}
	flags = append(flags, publishCfg.Flags()...)
	flags = append(flags, deployCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the test matrix of a pipeline file once",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			p, err := pipeline.Load(pipelinePath)
			if err != nil {
				return err
			}

			trigger := model.TriggerContext{Branch: branch, Commit: commit}
			if tag != "" {
				trigger = model.TriggerContext{IsTag: true, Tag: tag, Commit: commit}
			}

			matrixUC, err := buildMatrixUseCase(ctx, &publishCfg, &deployCfg, &notifyCfg, int(concurrency))
			if err != nil {
				return err
			}

			report, err := matrixUC.RunMatrix(ctx, p, trigger)
			if report != nil {
				printSummary(report)
			}
			if err != nil {
				return err
			}

			if !report.Passed() {
				logger.Error("Matrix run failed",
					"run_id", report.ID,
					"failed_entries", len(report.Failed()),
				)
				return goerr.New("matrix run failed", goerr.V("run_id", report.ID))
			}

			return nil
		},
	}
}
