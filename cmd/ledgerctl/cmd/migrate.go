package cmd

import (
	"finance_tracker/internal/db"

	"github.com/spf13/cobra"
)

// migrateCmd creates or updates the schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		_, gdb, err := openDB()
		exitOnError(err, "failed to open database")
		exitOnError(db.Migrate(gdb), "migration failed")
	},
}
