package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/weave/internal/printer"
	"github.com/MikeSquared-Agency/weave/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Creates the artifacts, scraps, conversations and chat_history tables and
the save_conversation function. Safe to run repeatedly.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return printer.Error("DATABASE_URL is required", "migrate needs a Postgres connection string.", nil)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	printer.Step("connecting to database\n")
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return printer.Error("Failed to connect to database", err.Error(), nil)
	}
	defer db.Close()

	printer.Step("applying schema\n")
	if err := db.Migrate(ctx); err != nil {
		return printer.Error("Migration failed", err.Error(), nil)
	}

	printer.Success("schema is up to date\n")
	return nil
}
