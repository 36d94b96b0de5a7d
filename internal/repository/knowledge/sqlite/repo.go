// Package sqlite stores knowledge entries in an embedded SQLite database
// through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	repo "github.com/kailas-cloud/triage/internal/repository/knowledge"
)

const schema = `CREATE TABLE IF NOT EXISTS ` + repo.Table + ` (
  id                 TEXT PRIMARY KEY,
  author_name        TEXT NOT NULL,
  facility           TEXT NOT NULL,
  specialty          TEXT NOT NULL,
  provider           TEXT,
  knowledge_type     TEXT NOT NULL,
  is_continuity_care INTEGER NOT NULL DEFAULT 0,
  description        TEXT NOT NULL,
  status             TEXT NOT NULL,
  created_at         INTEGER NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_knowledge_status_created ON ` + repo.Table + `(status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_knowledge_specialty ON ` + repo.Table + `(specialty)`,
}

// foldLower lowercases with Unicode rules; SQLite's lower() folds ASCII only.
const foldLower repo.Fold = "triage_lower"

func init() {
	err := msqlite.RegisterDeterministicScalarFunction(string(foldLower), 1, lowerFunc)
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", foldLower, err))
	}
}

func lowerFunc(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

const columns = `id, author_name, facility, specialty, provider, knowledge_type,
  is_continuity_care, description, status, created_at`

// Repo implements the knowledge store over database/sql.
type Repo struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Repo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) migrate(ctx context.Context) error {
	for _, stmt := range append([]string{schema}, indexes...) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Insert upserts entries in a single transaction.
func (r *Repo) Insert(ctx context.Context, entries []knowledge.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO `+repo.Table+` (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var provider sql.NullString
		if p := e.Provider(); p != nil {
			provider = sql.NullString{String: *p, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			e.ID(), e.AuthorName(), e.Facility(), e.Specialty(), provider, string(e.Type()),
			e.IsContinuityCare(), e.Description(), string(e.Status()), e.CreatedAt().UTC().UnixMicro(),
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", e.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindPublished returns published entries matching q, newest first.
func (r *Repo) FindPublished(ctx context.Context, q query.Query) ([]knowledge.Entry, error) {
	where, args := repo.Where(q, foldLower)
	stmt := `SELECT ` + columns + ` FROM ` + repo.Table + ` WHERE ` + where + ` ORDER BY ` + repo.OrderNatural
	if q.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find published: %w", err)
	}
	defer rows.Close()

	var out []knowledge.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("find published: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find published: %w", err)
	}
	return out, nil
}

// Suggest returns distinct values of f containing partial, ascending.
func (r *Repo) Suggest(ctx context.Context, f field.Field, partial string, limit int) ([]string, error) {
	col := repo.Column(f)
	where, args := repo.SuggestWhere(col, partial, foldLower)
	stmt := `SELECT DISTINCT ` + col + ` FROM ` + repo.Table + ` WHERE ` + where + ` ORDER BY ` + col + ` ASC`
	if limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("suggest %s: %w", f, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("suggest %s: %w", f, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("suggest %s: %w", f, err)
	}
	return out, nil
}

// Ping checks the database connection.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *Repo) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (knowledge.Entry, error) {
	var (
		p          knowledge.Params
		provider   sql.NullString
		kind       string
		status     string
		createdAt  int64
		continuity bool
	)
	err := s.Scan(&p.ID, &p.AuthorName, &p.Facility, &p.Specialty, &provider, &kind,
		&continuity, &p.Description, &status, &createdAt)
	if err != nil {
		return knowledge.Entry{}, err
	}
	if provider.Valid {
		p.Provider = &provider.String
	}
	p.Type = knowledge.Type(kind)
	p.Status = knowledge.Status(status)
	p.Continuity = continuity
	p.CreatedAt = time.UnixMicro(createdAt).UTC()
	return knowledge.Reconstruct(p), nil
}
