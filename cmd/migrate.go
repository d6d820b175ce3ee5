package cmd

import (
	"fmt"

	"infra-inventory/core/config"
	"infra-inventory/core/database"
	"infra-inventory/core/logger"
	"infra-inventory/feature/vmsync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates or updates the inventory tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the inventory database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}

		if err := vmsync.Migrate(db); err != nil {
			return err
		}
		logg.Info("Inventory tables migrated",
			zap.String("driver", cfg.Database.Driver),
			zap.String("database", cfg.Database.Name),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
