package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrack/internal/logger"
	"github.com/fittrack/internal/router"
	"github.com/fittrack/internal/service"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	created, err := a.api.Users().EnsureUser(ctx, a.cfg.SuperRootEmail, a.cfg.SuperRootPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap user created", "email", a.cfg.SuperRootEmail)
	}

	if a.cfg.GoalSweepInterval > 0 {
		go runGoalSweeper(ctx, a.api.Goals(), a.cfg.GoalSweepInterval)
	}

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router.SetupRouter(a.api, a.cfg.SessionSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", a.cfg.ListenAddr, "driver", a.cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// runGoalSweeper 定期关闭已过期的目标，直到 ctx 结束
func runGoalSweeper(ctx context.Context, goals *service.GoalService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed, err := goals.CloseExpired(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("goal sweep failed", "err", err)
			}
			if closed > 0 {
				logger.Info("goal sweep finished", "closed", closed)
			}
		}
	}
}
