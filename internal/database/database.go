// Package database provides database access for the Hypixel gateway
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(ctx context.Context, driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates all required tables
func (db *DB) Migrate(ctx context.Context) error {
	schema := `
	-- Audit events: one row per proxied upstream call or gateway auth event
	CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		type VARCHAR(100) NOT NULL,
		severity VARCHAR(20) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		client_id VARCHAR(255),
		session_id UUID,
		endpoint VARCHAR(255),
		status_code INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		data JSONB,
		ip_address VARCHAR(45),
		component VARCHAR(100) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_events_client ON audit_events(client_id);
	CREATE INDEX IF NOT EXISTS idx_audit_events_endpoint ON audit_events(endpoint);

	-- Operator switches
	CREATE TABLE IF NOT EXISTS system_state (
		key VARCHAR(100) PRIMARY KEY,
		value VARCHAR(255) NOT NULL,
		reason TEXT,
		updated_at TIMESTAMP NOT NULL,
		updated_by VARCHAR(255) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS disabled_endpoints (
		endpoint VARCHAR(255) PRIMARY KEY,
		reason TEXT,
		disabled_at TIMESTAMP NOT NULL,
		disabled_by VARCHAR(255) NOT NULL
	);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Reset drops all tables (for testing)
func (db *DB) Reset(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		DROP TABLE IF EXISTS disabled_endpoints CASCADE;
		DROP TABLE IF EXISTS system_state CASCADE;
		DROP TABLE IF EXISTS audit_events CASCADE;
	`)
	return err
}

// CleanData truncates all tables without dropping them (for testing)
func (db *DB) CleanData(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `TRUNCATE TABLE audit_events, system_state, disabled_endpoints;`)
	return err
}
