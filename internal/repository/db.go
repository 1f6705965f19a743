package repository

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"timebudget/internal/model"
)

// overlapViolation is raised by the time_allocations triggers; see isOverlapViolation.
const overlapViolation = "time allocation overlap"

// Triggers reject any row whose [start_time, end_time) intersects another row of the same
// (user_id, allocation_date). Times are zero-padded HH:MM, so text comparison is chronological.
var overlapTriggers = []string{
	`CREATE TRIGGER IF NOT EXISTS time_allocations_no_overlap_insert
	BEFORE INSERT ON time_allocations
	WHEN EXISTS (
		SELECT 1 FROM time_allocations a
		WHERE a.user_id = NEW.user_id
		  AND a.allocation_date = NEW.allocation_date
		  AND a.start_time < NEW.end_time
		  AND a.end_time > NEW.start_time
	)
	BEGIN
		SELECT RAISE(ABORT, '` + overlapViolation + `');
	END;`,
	`CREATE TRIGGER IF NOT EXISTS time_allocations_no_overlap_update
	BEFORE UPDATE OF user_id, allocation_date, start_time, end_time ON time_allocations
	WHEN EXISTS (
		SELECT 1 FROM time_allocations a
		WHERE a.id <> NEW.id
		  AND a.user_id = NEW.user_id
		  AND a.allocation_date = NEW.allocation_date
		  AND a.start_time < NEW.end_time
		  AND a.end_time > NEW.start_time
	)
	BEGIN
		SELECT RAISE(ABORT, '` + overlapViolation + `');
	END;`,
}

// NewDB opens a SQLite database, runs migrations and installs the overlap triggers.
// Write transactions take the database lock at BEGIN (_txlock=immediate), so an overlap
// check and the write that follows it cannot interleave with another writer.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "timebudget.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(withSQLiteParams(dsn)), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.TimeAllocation{}, &model.UserPreferences{}, &model.TimeTemplate{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	for _, stmt := range overlapTriggers {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("install overlap trigger: %w", err)
		}
	}

	return db, nil
}

// withSQLiteParams appends the driver options the stores rely on unless the DSN sets them.
func withSQLiteParams(dsn string) string {
	params := []string{"_txlock=immediate", "_busy_timeout=5000", "_foreign_keys=on"}
	for _, p := range params {
		key := strings.SplitN(p, "=", 2)[0] + "="
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + p
		} else {
			dsn += "?" + p
		}
	}
	return dsn
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	// Ignore DSNs with explicit mode=memory or network.
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	// Strip file: prefix if present.
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func isOverlapViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), overlapViolation)
}
