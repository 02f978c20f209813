// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Dialects

Three databases are supported through database/sql:

  - sqlite (modernc.org/sqlite, pure Go; the default and the test database)
  - postgres (github.com/lib/pq)
  - mysql (github.com/go-sql-driver/mysql)

Queries are written with ? placeholders and passed through Rebind:

	q := dialect.Rebind("SELECT id FROM candidate WHERE name = ?")

# Connecting

	d, err := db.ParseDialect(cfg.DatabaseType)
	conn, err := db.Open(d, cfg.DatabaseURL)

SQLite connections are capped at one open connection so that in-memory
databases are shared and writes never hit SQLITE_BUSY.

# Schema Creation

CreateSchema initializes the candidate table:

	if err := db.CreateSchema(conn, d); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS.

# Tables

	candidate (
	    id                auto-increment primary key
	    name              unique
	    url
	    count             >= 0, times the candidate won a poll
	    score             popularity, 100 is the maximum
	    last_selected_at  nullable, time of the last win
	)

An index on score backs the popularity ordering used for seeding and paging.
*/
package db
