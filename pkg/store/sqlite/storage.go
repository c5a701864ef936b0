package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// MessagesSchema is the legacy dedup-by-id message log
const MessagesSchema = `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT UNIQUE,
		content TEXT,
		created_at TEXT
	);
`

const DailyTotalsSchema = `
	CREATE TABLE IF NOT EXISTS traffic_daily_totals (
		date TEXT PRIMARY KEY,
		total_in INTEGER,
		total_out INTEGER,
		net_flow INTEGER,
		created_at TEXT
	);
`

const DailyLocationsSchema = `
	CREATE TABLE IF NOT EXISTS traffic_daily_locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT,
		org_location TEXT,
		org_name TEXT,
		daily_in INTEGER,
		daily_out INTEGER,
		net_flow INTEGER,
		created_at TEXT,
		UNIQUE(date, org_location)
	);
`

var bootQueries = []string{
	MessagesSchema,
	DailyTotalsSchema,
	DailyLocationsSchema,
}

type Settings struct {
	DbPath string
}

// NewDB opens the database file, creating its directory and the tables when missing.
// The handle is limited to a single connection; callers own it and must Close it.
func NewDB(settings Settings) (*sqlx.DB, error) {
	if settings.DbPath == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	if dir := filepath.Dir(settings.DbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", settings.DbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the boot schema; every statement is idempotent
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
