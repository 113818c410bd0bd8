package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Config holds store configuration.
type Config struct {
	Path string
}

// Connection wraps the SQLite database handle.
type Connection struct {
	DB   *sql.DB
	path string
}

// Status reports store health for the health-check action.
type Status struct {
	Status       string   `json:"status"`
	DatabasePath string   `json:"database_path"`
	DatabaseSize int64    `json:"database_size"`
	TablesCount  int      `json:"tables_count"`
	Tables       []string `json:"tables"`
}

// Open creates the database file (and its parent directory) if needed and
// opens a connection.
func Open(ctx context.Context, config Config) (*Connection, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	handle, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode so the desktop UI can read while an import is writing.
	if _, err := handle.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := handle.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{DB: handle, path: config.Path}, nil
}

// Close closes the database handle.
func (c *Connection) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Path returns the database file location.
func (c *Connection) Path() string {
	return c.path
}

// Stats inspects the database file and its tables.
func (c *Connection) Stats(ctx context.Context) (Status, error) {
	rows, err := c.DB.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return Status{}, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Status{}, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return Status{}, fmt.Errorf("failed to iterate tables: %w", err)
	}

	var size int64
	if info, err := os.Stat(c.path); err == nil {
		size = info.Size()
	}

	return Status{
		Status:       "connected",
		DatabasePath: c.path,
		DatabaseSize: size,
		TablesCount:  len(tables),
		Tables:       tables,
	}, nil
}

// DefaultConfig places the store under the user's application data directory.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Path: filepath.Join(home, ".byod_backtesting", "trading_data.db"),
	}
}
