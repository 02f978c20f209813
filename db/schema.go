// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the SQL differences between supported databases.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect validates a DATABASE_TYPE value.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(s)); d {
	case SQLite, Postgres, MySQL:
		return d, nil
	}
	return "", fmt.Errorf("unsupported database type %q (sqlite, postgres or mysql)", s)
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SupportsReturning reports whether INSERT ... RETURNING id works.
func (d Dialect) SupportsReturning() bool {
	return d != MySQL
}

// DSN normalizes url for the dialect's driver. MySQL DSNs always get
// parseTime=true so DATETIME columns scan into time.Time.
func (d Dialect) DSN(url string) (string, error) {
	if d != MySQL {
		return url, nil
	}
	cfg, err := mysql.ParseDSN(url)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Open connects and pings the database.
func Open(d Dialect, url string) (*sql.DB, error) {
	dsn, err := d.DSN(url)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d, err)
	}
	if d == SQLite {
		// Writers serialize on one connection; :memory: databases are per-connection.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", d, err)
	}
	return conn, nil
}

// CreateSchema creates the candidate table for the dialect.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, d Dialect) error {
	for _, stmt := range schema(d) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func schema(d Dialect) []string {
	switch d {
	case Postgres:
		return []string{`
CREATE TABLE IF NOT EXISTS candidate (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL DEFAULT '',
    count BIGINT NOT NULL DEFAULT 0 CHECK (count >= 0),
    score DOUBLE PRECISION NOT NULL DEFAULT 100,
    last_selected_at TIMESTAMPTZ
)`,
			`CREATE INDEX IF NOT EXISTS idx_candidate_score ON candidate(score)`,
		}
	case MySQL:
		// MySQL has no CREATE INDEX IF NOT EXISTS; the index is declared inline.
		return []string{`
CREATE TABLE IF NOT EXISTS candidate (
    id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE,
    url TEXT NOT NULL,
    count BIGINT NOT NULL DEFAULT 0 CHECK (count >= 0),
    score DOUBLE NOT NULL DEFAULT 100,
    last_selected_at DATETIME(6) NULL,
    INDEX idx_candidate_score (score)
)`}
	default:
		return []string{`
CREATE TABLE IF NOT EXISTS candidate (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL DEFAULT '',
    count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
    score REAL NOT NULL DEFAULT 100,
    last_selected_at TIMESTAMP
)`,
			`CREATE INDEX IF NOT EXISTS idx_candidate_score ON candidate(score)`,
		}
	}
}
