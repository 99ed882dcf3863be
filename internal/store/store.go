package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/qtree/internal/entity"
	"github.com/roach88/qtree/internal/querysql"
)

// Store wraps a SQLite database holding the tables that query trees
// filter.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenExisting opens a database file that must already exist. Open would
// create a missing file, which hides a mistyped path behind empty tables.
func OpenExisting(path string) (*Store, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("database not found: %s", path)
			}
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}
	return Open(path)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Select returns the rows of table matching where, in rowid order.
func (s *Store) Select(ctx context.Context, table string, where querysql.Where) ([]entity.Record, error) {
	quoted, err := querysql.QuoteIdent(table)
	if err != nil {
		return nil, err
	}

	cond := where.SQL
	if strings.TrimSpace(cond) == "" {
		cond = "1 = 1"
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY rowid ASC", quoted, cond)

	rows, err := s.db.QueryContext(ctx, query, where.Args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Count returns the number of rows of table matching where.
func (s *Store) Count(ctx context.Context, table string, where querysql.Where) (int, error) {
	quoted, err := querysql.QuoteIdent(table)
	if err != nil {
		return 0, err
	}

	cond := where.SQL
	if strings.TrimSpace(cond) == "" {
		cond = "1 = 1"
	}

	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", quoted, cond)
	if err := s.db.QueryRowContext(ctx, query, where.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Columns returns the column names of table in declaration order.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	quoted, err := querysql.QuoteIdent(table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoted))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}
	return cols, nil
}

// Insert adds one row. Keys of rec are column names; they are written in
// sorted order so the generated statement is stable.
func (s *Store) Insert(ctx context.Context, table string, rec entity.Record) error {
	quoted, err := querysql.QuoteIdent(table)
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return fmt.Errorf("insert into %s: empty record", table)
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		col, err := querysql.QuoteIdent(k)
		if err != nil {
			return err
		}
		cols[i] = col
		marks[i] = "?"
		args[i] = rec[k]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]entity.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []entity.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec := make(entity.Record, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = vals[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
