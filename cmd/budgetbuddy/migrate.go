package main

import (
	"fmt"

	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/storage"

	"github.com/spf13/cobra"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger schema",
		Long: `Apply pending migrations to SQLITE_DB_PATH and report the schema version.

On first launch the bundled database (BUNDLED_DB_PATH) is copied into place
before migrating.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := cli.OpenRepository(a.cfg, a.logger)
			if err != nil {
				return err
			}
			if err := repo.Close(); err != nil {
				return fmt.Errorf("close database: %w", err)
			}

			version, dirty, err := storage.MigrationVersion(a.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t) at %s\n", version, dirty, a.cfg.SQLiteDBPath)
			return nil
		},
	}
}
