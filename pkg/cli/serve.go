package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/cli/config"
	httpctrl "github.com/secmon-lab/folio/pkg/controller/http"
	"github.com/secmon-lab/folio/pkg/service/worker"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/secmon-lab/folio/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var rtCfg runtimeConfig
	var serverCfg config.Server
	var sentryCfg config.Sentry

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, rtCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			m := metrics.New()
			rt, err := rtCfg.setup(ctx, m)
			if err != nil {
				return err
			}
			defer rt.Close()

			httpOpts := []httpctrl.Options{
				httpctrl.WithMetricsHandler(m.Handler()),
				httpctrl.WithChatRateLimit(serverCfg.ChatRate(), serverCfg.ChatBurst()),
				httpctrl.WithAllowedOrigins(serverCfg.AllowedOrigins()...),
			}

			// Keep the index in sync with the content store
			var refreshWorker *worker.IndexRefreshWorker
			if rt.index != nil {
				httpOpts = append(httpOpts, httpctrl.WithIndex(rt.uc.Index, rt.index))

				rebuild := func(ctx context.Context) error {
					_, err := rt.uc.Index.Rebuild(ctx)
					return err
				}
				var workerOpts []worker.Option
				if serverCfg.RefreshInterval() > 0 {
					workerOpts = append(workerOpts, worker.WithInterval(serverCfg.RefreshInterval()))
				}
				if serverCfg.Watch() && rt.store.WatchPath != "" {
					workerOpts = append(workerOpts, worker.WithWatchFile(rt.store.WatchPath, rt.store.Reload))
				}
				if len(workerOpts) > 0 {
					refreshWorker = worker.NewIndexRefreshWorker(rebuild, workerOpts...)
					if err := refreshWorker.Start(ctx); err != nil {
						return goerr.Wrap(err, "failed to start index refresh worker")
					}
				}
			}

			server := &http.Server{
				Addr:              serverCfg.Addr(),
				Handler:           httpctrl.New(rt.uc.Chat, rt.uc.Content, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "server", serverCfg, "agent", rtCfg.agent)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				if refreshWorker != nil {
					refreshWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if refreshWorker != nil {
					refreshWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
