package main

import (
	"fmt"

	"github.com/fittrack/internal/config"
	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/handler"
	"github.com/fittrack/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// app 保存各子命令共享的运行时依赖，在 PersistentPreRunE 中初始化
type app struct {
	cfg config.AppConfig
	api *handler.API
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "server",
		Short:         "Fitness tracking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Server runs the fitness tracking HTTP API and its maintenance tasks.

CONFIGURATION:

  All settings come from environment variables, e.g.
  DATABASE_DRIVER, DATABASE_PATH, JWT_SECRET, LOG_LEVEL, GOAL_SWEEP_INTERVAL.

COMMANDS:

  $ server serve                                  # Run the HTTP API
  $ server sweep-goals                            # Close every expired goal once
  $ server create-user --email a@b.c --password x # Create an account
  $ server seed-demo --days 28                    # Fill a demo account`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return db.Close(db.DB)
		},
	}

	root.AddCommand(newServeCmd(a), newSweepCmd(a), newCreateUserCmd(a), newSeedDemoCmd(a))
	return root
}

func (a *app) init() error {
	a.cfg = config.Load()

	if err := logger.Init(logger.Config{Level: a.cfg.LogLevel, File: a.cfg.LogFile}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	for _, warning := range a.cfg.Warnings {
		logger.Warn("config fallback", "detail", warning)
	}

	gin.SetMode(a.cfg.GinMode)

	// 初始化数据库
	if err := db.Init(a.cfg.DatabaseDriver, a.cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	a.api = handler.NewAPI(db.DB, handler.Options{
		JWTSecret: a.cfg.JWTSecret,
		TokenTTL:  a.cfg.TokenTTL,
		Location:  a.cfg.StatsLocation,
	})
	return nil
}
