// Package dbtest provides throwaway in-memory databases for tests.
package dbtest

import (
	"testing"

	"finance_tracker/internal/config"
	"finance_tracker/internal/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New opens a migrated in-memory SQLite database private to t
func New(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: config.DriverSQLite,
		DBPath:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		IsProd:   true,
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
