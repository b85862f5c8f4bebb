package main

import (
	"context"

	"github.com/andressep95/city-news-api/internal/config"
	"github.com/andressep95/city-news-api/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sqlx.DB, log *zap.SugaredLogger) error {
				if err := postgres.Migrate(ctx, db.DB); err != nil {
					return err
				}
				log.Info("Database migrations applied")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sqlx.DB, _ *zap.SugaredLogger) error {
				return postgres.MigrationStatus(ctx, db.DB)
			})
		},
	})

	return cmd
}

// withDB runs fn against a freshly opened database and closes it afterwards
func withDB(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, db *sqlx.DB, log *zap.SugaredLogger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := initDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, db, log)
}
