// Package database owns the connection to the relational store and the
// driver-portability helpers used by every repository.
package database

import (
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goatkit/timeflow/internal/config"
)

// Connect opens the configured database, verifies it with a ping, and
// records the active driver for placeholder conversion.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	SetDriver(cfg.Driver)
	log.Printf("[database] connected driver=%s db=%s", cfg.Driver, cfg.Name)
	return db, nil
}
