package main

import (
	"finance_tracker/internal/config"  // Custom import path (Config)
	"finance_tracker/internal/db"      // Custom import path (Database)
	"finance_tracker/internal/logging" // Logger setup

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig()              // Load configuration
	logging.Setup(cfg.LogLevel, cfg.IsProd) // Setup logger

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
}
