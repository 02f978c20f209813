// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package candidates

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/lunch-poll/db"
	"github.com/danielhkuo/lunch-poll/models"
)

const candidateColumns = "id, name, url, count, score, last_selected_at"

// SQLStore is the relational Store.
type SQLStore struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewSQLStore(conn *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{db: conn, dialect: dialect}
}

func (s *SQLStore) Create(ctx context.Context, name, url string) (int64, error) {
	var (
		id  int64
		err error
	)
	if s.dialect.SupportsReturning() {
		err = s.db.QueryRowContext(ctx, s.dialect.Rebind(`
			INSERT INTO candidate (name, url, count, score)
			VALUES (?, ?, 0, ?)
			RETURNING id
		`), name, url, models.MaxPopularity).Scan(&id)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO candidate (name, url, count, score)
			VALUES (?, ?, 0, ?)
		`, name, url, models.MaxPopularity)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}

	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrDuplicateCandidate
		}
		return 0, models.Unavailable("create candidate", err)
	}
	return id, nil
}

func (s *SQLStore) FindByName(ctx context.Context, name string) (*models.CandidateRecord, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		"SELECT "+candidateColumns+" FROM candidate WHERE name = ?"), name)

	rec, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, models.Unavailable("find candidate", err)
	}
	return &rec, nil
}

func (s *SQLStore) FindByNames(ctx context.Context, names []string) ([]models.CandidateRecord, error) {
	if len(names) == 0 {
		return []models.CandidateRecord{}, nil
	}

	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")

	return s.query(ctx, "find candidates",
		"SELECT "+candidateColumns+" FROM candidate WHERE name IN ("+marks+") ORDER BY score DESC, id ASC",
		args...)
}

func (s *SQLStore) ListAll(ctx context.Context) ([]models.CandidateRecord, error) {
	return s.query(ctx, "list candidates",
		"SELECT "+candidateColumns+" FROM candidate ORDER BY score DESC, id ASC")
}

func (s *SQLStore) ListPage(ctx context.Context, offset, limit int) ([]models.CandidateRecord, error) {
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []models.CandidateRecord{}, nil
	}
	return s.query(ctx, "page candidates",
		"SELECT "+candidateColumns+" FROM candidate ORDER BY score DESC, id ASC LIMIT ? OFFSET ?",
		limit, offset)
}

func (s *SQLStore) RecordSelection(ctx context.Context, id int64) error {
	return s.exec(ctx, "record selection",
		"UPDATE candidate SET count = count + 1 WHERE id = ?", id)
}

func (s *SQLStore) ResetToMaximum(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, "reset score",
		"UPDATE candidate SET score = ?, last_selected_at = ? WHERE id = ?",
		models.MaxPopularity, at.UTC(), id)
}

func (s *SQLStore) ApplyDecay(ctx context.Context, id int64, factor float64) error {
	return s.exec(ctx, "decay score",
		"UPDATE candidate SET score = score * ? WHERE id = ?", factor, id)
}

func (s *SQLStore) exec(ctx context.Context, op, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
	return models.Unavailable(op, err)
}

func (s *SQLStore) query(ctx context.Context, op, query string, args ...any) ([]models.CandidateRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, models.Unavailable(op, err)
	}
	defer rows.Close()

	records := []models.CandidateRecord{}
	for rows.Next() {
		rec, err := scanCandidate(rows)
		if err != nil {
			return nil, models.Unavailable(op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable(op, err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (models.CandidateRecord, error) {
	var (
		rec      models.CandidateRecord
		selected sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.Name, &rec.URL, &rec.SelectionCount, &rec.PopularityScore, &selected)
	if err != nil {
		return models.CandidateRecord{}, err
	}
	if selected.Valid {
		t := selected.Time
		rec.LastSelectedAt = &t
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
