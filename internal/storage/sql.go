package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"blockshell/internal/domain"
)

// Dialect names a supported SQL backend. The value doubles as the
// database/sql driver name.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DB stores workspace sessions in one SQL table.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// OpenSQL opens (and migrates) a SQL store. For sqlite, dsn is a file path;
// its directory is created when missing.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	switch dialect {
	case DialectSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	case DialectPostgres, DialectMySQL:
	default:
		return nil, fmt.Errorf("%w: sql dialect %q", ErrUnknownDriver, dialect)
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// SQLite only supports one writer
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	var ddl string
	switch db.dialect {
	case DialectMySQL:
		ddl = `CREATE TABLE IF NOT EXISTS workspace_sessions (
			tab_id VARCHAR(255) PRIMARY KEY,
			created_at BIGINT NOT NULL,
			last_seen_at BIGINT NOT NULL,
			windows_json LONGTEXT NOT NULL
		)`
	case DialectPostgres:
		ddl = `CREATE TABLE IF NOT EXISTS workspace_sessions (
			tab_id TEXT PRIMARY KEY,
			created_at BIGINT NOT NULL,
			last_seen_at BIGINT NOT NULL,
			windows_json TEXT NOT NULL DEFAULT '[]'
		)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS workspace_sessions (
			tab_id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			last_seen_at INTEGER NOT NULL,
			windows_json TEXT NOT NULL DEFAULT '[]'
		)`
	}
	if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migration failed: workspace_sessions: %w", err)
	}
	return nil
}

func (db *DB) insertSQL() string {
	if db.dialect == DialectPostgres {
		return `INSERT INTO workspace_sessions (tab_id, created_at, last_seen_at, windows_json) VALUES ($1, $2, $3, $4)`
	}
	return `INSERT INTO workspace_sessions (tab_id, created_at, last_seen_at, windows_json) VALUES (?, ?, ?, ?)`
}

func (db *DB) LoadAll(ctx context.Context) ([]domain.WorkspaceSession, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT tab_id, created_at, last_seen_at, windows_json FROM workspace_sessions ORDER BY tab_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.WorkspaceSession
	for rows.Next() {
		var rec domain.WorkspaceSession
		var windowsJSON string
		if err := rows.Scan(&rec.TabID, &rec.CreatedAt, &rec.LastSeenAt, &windowsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(windowsJSON), &rec.Windows); err != nil {
			return nil, fmt.Errorf("decode windows for %s: %w", rec.TabID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveAll replaces the table contents in one transaction.
func (db *DB) SaveAll(ctx context.Context, sessions []domain.WorkspaceSession) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workspace_sessions`); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	insert := db.insertSQL()
	for _, rec := range sessions {
		windowsJSON, err := encodeWindows(rec.Windows)
		if err != nil {
			return fmt.Errorf("encode windows for %s: %w", rec.TabID, err)
		}
		if _, err := tx.ExecContext(ctx, insert, rec.TabID, rec.CreatedAt, rec.LastSeenAt, windowsJSON); err != nil {
			return fmt.Errorf("insert session %s: %w", rec.TabID, err)
		}
	}
	return tx.Commit()
}

func encodeWindows(windows []domain.WindowSnapshot) (string, error) {
	if windows == nil {
		windows = []domain.WindowSnapshot{}
	}
	b, err := json.Marshal(windows)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
