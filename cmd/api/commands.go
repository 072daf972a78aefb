package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/infra/app"
	"github.com/arklim/reviewapp-auth/internal/infra/config"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reviewapp-auth",
		Short:         "Account verification and password reset service",
		Version:       app.Version,
		SilenceUsage:  true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP and gRPC servers",
			RunE:  runServe,
		},
		newMigrateCmd(),
		&cobra.Command{
			Use:   "reap",
			Short: "Delete expired verification and reset tokens once",
			RunE:  runReap,
		},
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	for _, direction := range []struct{ use, short string }{
		{"up", "Apply all up migrations"},
		{"down", "Roll back the latest migration"},
		{"status", "Print the migration status"},
	} {
		migrateCmd.AddCommand(&cobra.Command{
			Use:   direction.use,
			Short: direction.short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := bootstrap()
				if err != nil {
					return err
				}
				defer func() { _ = log.Sync() }()
				return app.Migrate(cmd.Context(), cfg, log, direction.use)
			},
		})
	}
	return migrateCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	application, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		log.Error("failed to init app", zap.Error(err))
		return err
	}
	if err := application.Run(cmd.Context()); err != nil {
		log.Error("application stopped", zap.Error(err))
		return err
	}
	return nil
}

func runReap(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	result, err := app.Reap(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	log.Info("expired tokens purged",
		zap.Int64("verification", result.Verification),
		zap.Int64("reset", result.Reset),
	)
	return nil
}

func bootstrap() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
