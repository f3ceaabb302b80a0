// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection with production-grade configuration.
type DB struct {
	conn *sql.DB
	path string
	name string // Database name for logging
}

// Config holds database configuration.
type Config struct {
	Path string
	Name string // Friendly name for logging (e.g., "history")
}

// New creates a new database connection with production-grade configuration.
func New(cfg Config) (*DB, error) {
	// Handle file: URIs (used for in-memory databases in tests) - skip
	// filepath operations for those.
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn: conn,
		path: cfg.Path,
		name: cfg.Name,
	}, nil
}

// buildConnectionString creates an SQLite connection string with PRAGMAs
// suited for a long-running service.
func buildConnectionString(path string) string {
	connStr := path + "?_pragma=journal_mode(WAL)"
	connStr += "&_pragma=synchronous(NORMAL)"      // Fsync at checkpoints
	connStr += "&_pragma=auto_vacuum(INCREMENTAL)" // Gradual space reclamation
	connStr += "&_pragma=temp_store(MEMORY)"       // Temp tables in RAM
	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=wal_autocheckpoint(1000)"
	connStr += "&_pragma=cache_size(-64000)" // 64MB cache (negative = KB)
	return connStr
}

// configureConnectionPool sets up the connection pool for long-term operation.
func configureConnectionPool(conn *sql.DB) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
// Used by repositories to execute queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging.
func (db *DB) Name() string {
	return db.name
}
