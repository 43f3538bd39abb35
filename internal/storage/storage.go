// Package storage persists users and tasks in a relational database.
// SQLite, MySQL and PostgreSQL are supported through sqlx; queries are
// written with ? placeholders and rebound for the connected driver.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
)

// Dialect identifies the SQL flavour of the backing database.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// Store gives access to the users and items tables.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	dialect := Dialect(driver)
	switch dialect {
	case SQLite, MySQL, Postgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == SQLite {
		// a :memory: database exists per connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db, dialect: dialect}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: sqlx.NewDb(db, string(dialect)), dialect: dialect}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the users and items tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	var stmts []string
	switch s.dialect {
	case SQLite:
		stmts = []string{
			`PRAGMA foreign_keys = ON`,
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_name TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				is_complete BOOLEAN NOT NULL DEFAULT 0,
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`,
		}
	case MySQL:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INT AUTO_INCREMENT PRIMARY KEY,
				user_name VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS items (
				id INT AUTO_INCREMENT PRIMARY KEY,
				user_id INT NOT NULL,
				name VARCHAR(255) NOT NULL,
				is_complete BOOLEAN NOT NULL DEFAULT FALSE,
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`,
		}
	case Postgres:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id SERIAL PRIMARY KEY,
				user_name VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS items (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL REFERENCES users(id),
				name VARCHAR(255) NOT NULL,
				is_complete BOOLEAN NOT NULL DEFAULT FALSE
			)`,
		}
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// insert runs an INSERT and returns the generated id. lib/pq does not
// implement LastInsertId, so PostgreSQL uses RETURNING.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if s.dialect == Postgres {
		var id int64
		err := s.db.GetContext(ctx, &id, s.db.Rebind(query+" RETURNING id"), args...)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// isUniqueViolation reports whether err is a uniqueness constraint failure
// from any of the supported drivers.
func isUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
