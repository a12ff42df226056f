package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emphasys/identity/internal/core/service"
	"github.com/emphasys/identity/internal/infrastructure/db/sqlstore"
)

var seedRoles bool

// migrateCmd creates the directory schema without starting the server.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the directory schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := setup(ctx)
		if err != nil {
			return err
		}

		db, err := sqlstore.Open(ctx, sqlstore.Config{Path: cfg.Database.Path, Debug: cfg.Database.Debug})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sqlstore.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
		log.Info().Str("path", cfg.Database.Path).Msg("schema up to date")

		if !seedRoles {
			return nil
		}
		store := sqlstore.New(db, cfg.Security.AdminTierSize)
		return service.NewBootstrapper(store, nil, log).EnsureRoles(ctx)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&seedRoles, "seed", true, "create the Superuser role when no roles exist")
}
