package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/anderle/table-reservation/internal/config"
)

// Open connects to MySQL and verifies the connection.  The DSN forces
// UTC and parseTime so DATE/DATETIME columns scan into time.Time
// consistently; TIME columns are scanned as text and parsed by the
// model layer.
func Open(cfg config.Config) (*sql.DB, error) {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool sizing: the booking path serializes per (date, slot), so a
	// modest pool is plenty and keeps lock queues short.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
