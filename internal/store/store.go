// Package store persists dealership records in SQLite. Every entity lives in
// its own table with an opaque text id and created/updated timestamps; the
// remaining columns come from the entity's Schema.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dealerops/dealerctl/internal/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing record")
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type DB struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path. SQLite allows a single
// writer, so the pool is limited to one connection and writers queue in
// database/sql rather than failing with SQLITE_BUSY.
func Open(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	dsn := MemoryPath
	if path != MemoryPath {
		path = os.ExpandEnv(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	logger.Debug("opened database", "path", path)

	return &DB{db: db, logger: logger, now: time.Now}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// SetClock replaces the time source used for record timestamps.
func (d *DB) SetClock(now func() time.Time) {
	d.now = now
}

// Table returns the accessor for schema outside of any transaction.
func (d *DB) Table(schema Schema) *Table {
	return &Table{schema: schema, q: d.db, logger: d.logger, now: d.now}
}

// Tx scopes table accessors to a single transaction.
type Tx struct {
	tx *sql.Tx
	db *DB
}

func (t *Tx) Table(schema Schema) *Table {
	return &Table{schema: schema, q: t.tx, logger: t.db.logger, now: t.db.now}
}

// InTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func (d *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&Tx{tx: sqlTx, db: d}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			d.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// Migrate creates the tables and unique indexes for schemas and adds columns
// that are missing from existing tables.
func (d *DB) Migrate(ctx context.Context, schemas ...Schema) error {
	for _, schema := range schemas {
		if err := schema.Validate(); err != nil {
			return err
		}
		if _, err := d.db.ExecContext(ctx, schema.createTableSQL()); err != nil {
			return fmt.Errorf("failed to create table %s: %w", schema.Table, err)
		}

		existing, err := d.columns(ctx, schema.Table)
		if err != nil {
			return err
		}
		for _, col := range schema.Columns {
			if existing[col.Name] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(schema.Table), col.definition())
			if _, err := d.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", schema.Table, col.Name, err)
			}
			d.logger.InfoContext(ctx, "added column", "table", schema.Table, "column", col.Name)
		}

		for _, stmt := range schema.indexSQL() {
			if _, err := d.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", schema.Table, mapError(err))
			}
		}
		d.logger.Log(ctx, log.LevelTrace, "migrated table", "table", schema.Table)
	}
	return nil
}

func (d *DB) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// mapError translates constraint violations into ErrConflict.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrConflict, conflictDetail(se.Error()))
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrConflict, conflictDetail(err.Error()))
	}
	return err
}

// conflictDetail reduces "UNIQUE constraint failed: vehicles.chassis_no" to
// the column list.
func conflictDetail(msg string) string {
	const marker = "constraint failed: "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return msg
	}
	cols := msg[i+len(marker):]
	if j := strings.Index(cols, " ("); j > 0 {
		cols = cols[:j]
	}
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if _, col, ok := strings.Cut(p, "."); ok {
			p = col
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ") + " must be unique"
}
