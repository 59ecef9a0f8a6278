package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xRamax/scrapper-violet-wave/internal/monitoring"
	"github.com/xRamax/scrapper-violet-wave/internal/outreach"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, the Twilio webhook and the daily outreach scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return startServer(gctx, buildRouter(env), resolvePort(servePort, cfg.Server.Port))
		})

		switch {
		case !cfg.Outreach.Schedule:
			zap.L().Info("daily outreach disabled")
		case env.sender == nil:
			zap.L().Warn("daily outreach skipped", zap.Error(errOutreachDisabled))
		default:
			sched := outreach.NewScheduler(cfg.Outreach.Hour, cfg.Outreach.Minute, func(ctx context.Context) error {
				_, err := env.runOutreach(ctx)
				return err
			})
			g.Go(func() error { return sched.Run(gctx) })
		}

		if env.runs != nil {
			checker := monitoring.NewChecker(monitoring.NewCollector(env.runs), env.alerter, cfg.Monitoring)
			g.Go(func() error { return checker.Run(gctx) })
		}

		return g.Wait()
	},
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler on port until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- eris.Wrap(err, "server listen")
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return <-errCh
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
