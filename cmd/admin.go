package main

import (
	"context"
	"fmt"

	"github.com/andressep95/city-news-api/internal/config"
	"github.com/andressep95/city-news-api/internal/repository/postgres"
	"github.com/andressep95/city-news-api/internal/service"
	"github.com/andressep95/city-news-api/pkg/hash"
	"github.com/andressep95/city-news-api/pkg/validator"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultAdminPassword = "ChangeMe123!"
	defaultAdminName     = "Administrator"
)

func createAdminCmd() *cobra.Command {
	var req service.CreateAdminRequest

	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create an ADMIN account",
		Example: "  city-news-api create-admin --email admin@example.com [--password secret] [--name \"Admin\"]",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.NewValidator().Validate(req); err != nil {
				return err
			}

			return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *sqlx.DB, log *zap.SugaredLogger) error {
				hasher, err := hash.NewPasswordHasher(cfg.Auth.BcryptCost)
				if err != nil {
					return err
				}

				users := service.NewUserService(postgres.NewUserRepository(db), hasher)
				user, created, err := users.CreateAdmin(ctx, req)
				if err != nil {
					return fmt.Errorf("failed to create admin: %w", err)
				}

				if !created {
					fmt.Fprintf(cmd.OutOrStdout(), "User already exists: %s\n", user.ID)
					return nil
				}

				log.Infow("Admin user created", "user_id", user.ID, "email", user.Email)
				fmt.Fprintf(cmd.OutOrStdout(), "Admin user created: id=%s email=%s name=%s\n", user.ID, user.Email, user.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Admin email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", defaultAdminPassword, "Admin password")
	cmd.Flags().StringVar(&req.Name, "name", defaultAdminName, "Admin display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
