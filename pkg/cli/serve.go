package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/pipeline"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		pipelinePath string
		concurrency  int64

		serverCfg  config.Server
		webhookCfg config.Webhook
		sentryCfg  config.Sentry
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
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Maximum matrix entries running at once, 0 for unbounded",
			Value:       0,
			Destination: &concurrency,
			Sources:     cli.EnvVars("DROVER_CONCURRENCY"),
		},
	}
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, webhookCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, publishCfg.Flags()...)
	flags = append(flags, deployCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook server triggering matrix runs on push events",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			p, err := pipeline.Load(pipelinePath)
			if err != nil {
				return err
			}

			sentryEnabled, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			if sentryEnabled {
				defer sentry.Flush(2 * time.Second)
			}

			logger.Info("Starting drover server",
				slog.String("addr", serverCfg.Addr),
				slog.String("pipeline", p.Name),
				slog.Int("entries", len(p.Matrix)),
				slog.Bool("sentry", sentryEnabled),
			)

			matrixUC, err := buildMatrixUseCase(ctx, &publishCfg, &deployCfg, &notifyCfg, int(concurrency))
			if err != nil {
				return err
			}
			webhookUC := usecase.NewWebhook(p, matrixUC)

			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(webhookCfg.Secret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
