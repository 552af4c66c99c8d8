// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database; it lives inside the binary as a single file.
// No separate database server to install or manage, and ":memory:" gives every
// test its own throwaway database.
//
// modernc.org/sqlite is a pure Go translation of the SQLite C code, so no C
// compiler is needed and cross-compilation just works.
//
// ONE CONNECTION:
// The pool is capped at a single connection. SQLite only allows one writer at a
// time anyway, and with one connection every transaction opened by WithinTx runs
// to completion before the next statement starts. That is what keeps the
// "check email is free, then insert" sequences atomic under concurrent requests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	// Importing the driver also registers "sqlite" with database/sql.
	modernc "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/sakif/qbay/internal/repository"
	"github.com/sakif/qbay/internal/repository/sqlite/migrations"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// querier is the subset of *sql.DB and *sql.Tx the record repositories use.
// Binding a repository to one or the other decides whether it runs inside a
// transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and hands out the record repositories.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/qbay.db"  → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests, lost on close)
//
// Pragmas are passed in the DSN rather than executed once, so a connection
// re-opened by database/sql gets them too.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// sql.Open doesn't connect; Ping surfaces a bad path or permissions now.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background(), migrations.FS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if dbPath != ":memory:" {
		// WAL lets readers continue while a write is in progress.
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return dbPath + "?" + strings.Join(pragmas, "&")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Pool exposes the connection pool for instrumentation such as
// collectors.NewDBStatsCollector. Queries go through the repositories.
func (db *DB) Pool() *sql.DB {
	return db.conn
}

// Users returns a UserRepository that runs each call on its own.
func (db *DB) Users() repository.UserRepository {
	return &UserDB{q: db.conn}
}

// Listings returns a ListingRepository that runs each call on its own.
func (db *DB) Listings() repository.ListingRepository {
	return &ListingDB{q: db.conn}
}

// WithinTx runs fn inside a single transaction. fn must only use the
// repositories it is given: with one pooled connection, calling db.Users()
// from inside fn would wait on the transaction forever.
func (db *DB) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	repos := repository.Repos{
		Users:    &UserDB{q: tx},
		Listings: &ListingDB{q: tx},
	}

	if err := fn(repos); err != nil {
		// Rollback errors are secondary to the one that caused the rollback.
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate value
// in a UNIQUE column. Another process writing the same file can slip a row in
// between a service's lookup and its insert.
func isUniqueViolation(err error) bool {
	var sqliteErr *modernc.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
}

// gooseMu guards goose's package-level base FS and dialect, which every
// New call sets before migrating.
var gooseMu sync.Mutex

// migrate brings the schema up to the newest embedded goose migration.
// Applied versions are recorded in goose_db_version, so running it again
// is a no-op.
func (db *DB) migrate(ctx context.Context, fsys fs.FS) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db.conn, ".")
}
