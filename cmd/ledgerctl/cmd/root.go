// Package cmd provides the ledgerctl commands.
package cmd

import (
	"fmt"
	"os"

	"finance_tracker/internal/config"
	"finance_tracker/internal/db"
	"finance_tracker/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var debug bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Maintenance tasks for the finance tracker ledger",
	Long: `ledgerctl runs offline maintenance against the finance tracker database.
Configuration is read from the environment and an optional .env file,
the same way the server reads it.

Example:
  ledgerctl migrate
  ledgerctl reconcile --user 42
  ledgerctl reconcile --fix`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		level := cfg.LogLevel
		if debug {
			level = "debug"
		}
		logging.Setup(level, cfg.IsProd)
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// openDB loads the configuration and connects to its database
func openDB() (*config.Config, *gorm.DB, error) {
	cfg := config.LoadConfig()
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gdb, nil
}

// exitOnError logs err and exits with status 1
func exitOnError(err error, msg string) {
	if err != nil {
		logrus.WithError(err).Error(msg)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
