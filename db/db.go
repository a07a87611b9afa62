// Package db is soundscout's sqlite store: background task state, plus a
// cache of every artist a batch has scraped.
package db

import (
	"context"
	"fmt"

	"github.com/amonks/soundscout/data"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB represents our sqlite3 database file.
type DB struct{ *gorm.DB }

// Open returns a connection to a migrated sqlite3 database file on disk,
// creating the file and running migrations if necessary. The filename
// ":memory:" opens a private in-memory database.
func Open(filename string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn(filename)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening db file at '%s': %w", filename, err)
	}

	// sqlite allows one writer at a time, and every connection to
	// ":memory:" would otherwise get its own empty database.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("error opening db file at '%s': %w", filename, err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := &DB{gdb}
	if err := db.AutoMigrate(&data.DiscoveryTask{}, &ScrapedArtist{}, &ScrapedTrack{}); err != nil {
		return nil, fmt.Errorf("error migrating db at '%s': %w", filename, err)
	}

	return db, nil
}

func dsn(filename string) string {
	if filename == ":memory:" {
		return filename
	}
	return filename + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("error getting db connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("error pinging db: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
