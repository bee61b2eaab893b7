package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"competencymap/internal/repository"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
	// PostgreSQL driver for running against the host database.
	_ "github.com/lib/pq"
)

// Dialect selects the SQL flavour used by the store
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a Dialect
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

var (
	_ repository.MappingStore      = (*Store)(nil)
	_ repository.CompetencyCatalog = (*Store)(nil)
	_ repository.QuestionReader    = (*Store)(nil)
)

// Store implements repository.MappingStore, repository.CompetencyCatalog
// and repository.QuestionReader on database/sql
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database, applies connection settings and migrates
// the mapping table
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// One connection: keeps :memory: databases alive and serializes writers.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// New wraps an already opened database without migrating it
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Migrate creates the mapping table and its indexes if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range mappingSchema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureHostSchema creates minimal question and competency tables.
// Only meant for standalone installations and tests; a real host already
// owns these tables.
func (s *Store) EnsureHostSchema(ctx context.Context) error {
	for _, stmt := range hostSchema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create host schema: %w", err)
		}
	}
	return nil
}

func mappingSchema(d Dialect) []string {
	if d == DialectPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS question_competency (
				id BIGSERIAL PRIMARY KEY,
				question_id BIGINT NOT NULL,
				competency_id BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_question_competency_question ON question_competency(question_id)`,
			`CREATE INDEX IF NOT EXISTS idx_question_competency_competency ON question_competency(competency_id)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS question_competency (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_id INTEGER NOT NULL,
			competency_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_question_competency_question ON question_competency(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_question_competency_competency ON question_competency(competency_id)`,
	}
}

func hostSchema(d Dialect) []string {
	idType := "INTEGER PRIMARY KEY AUTOINCREMENT"
	intType := "INTEGER"
	if d == DialectPostgres {
		idType = "BIGSERIAL PRIMARY KEY"
		intType = "BIGINT"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS question (
			id ` + idType + `,
			name TEXT NOT NULL DEFAULT '',
			context_id ` + intType + ` NOT NULL,
			course_id ` + intType + `
		)`,
		`CREATE TABLE IF NOT EXISTS competency (
			id ` + idType + `,
			shortname TEXT,
			idnumber TEXT
		)`,
	}
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect returns the SQL flavour of the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
