package repository

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todo-alarm/internal/model"
)

// NewDB opens the SQLite task database, creating the file on first run, and runs migrations.
func NewDB(dsn string, logOut *log.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "todo.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, &StorageError{Op: "prepare db", Err: err}
	}

	if logOut == nil {
		logOut = log.New(os.Stdout, "", log.LstdFlags)
	}
	dbLogger := logger.New(
		logOut,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, &StorageError{Op: "open db", Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &StorageError{Op: "open db", Err: err}
	}
	// One connection keeps pragmas and in-memory databases consistent, and
	// serialises the UI loop with the bot goroutine.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=FULL"} {
		if err := db.Exec(pragma).Error; err != nil {
			sqlDB.Close()
			return nil, &StorageError{Op: "configure db", Err: err}
		}
	}

	if err := db.AutoMigrate(&model.Task{}); err != nil {
		sqlDB.Close()
		return nil, &StorageError{Op: "migrate db", Err: err}
	}

	return db, nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
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
