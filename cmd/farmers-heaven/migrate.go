package main

import (
	"fmt"

	"github.com/farmersheaven/backend/repositories/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			factory, err := postgres.NewRepositoryFactory(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer factory.Close()

			if err := factory.InitSchema(cmd.Context()); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
