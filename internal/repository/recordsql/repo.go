// Package recordsql resolves search hits against rows of a SQLite table.
// Each kind maps to one table (Kind.Table, falling back to Kind.Name) with
// an "id" primary key column. Every other column becomes a record field.
package recordsql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	domrec "github.com/kailas-cloud/docset/internal/domain/record"
)

// IDColumn is the primary key column every record table must have.
const IDColumn = "id"

// Repo implements queryset.Resolver and queryset.BatchResolver for
// domrec.Document over a SQL database.
type Repo struct {
	db *sql.DB
}

// Open opens the SQLite database at path read-only. ":memory:" opens a
// private in-memory database.
func Open(path string) (*Repo, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// an in-memory database lives on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragma: %w", err)
	}
	return New(db), nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// DB exposes the underlying handle.
func (r *Repo) DB() *sql.DB { return r.db }

// Close closes the database.
func (r *Repo) Close() error { return r.db.Close() }

// Ping checks that the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Resolve returns the row with id. No row yields ok == false.
func (r *Repo) Resolve(ctx context.Context, kind domrec.Kind, id string) (domrec.Document, bool, error) {
	found, err := r.ResolveMany(ctx, kind, []string{id})
	if err != nil {
		return domrec.Document{}, false, err
	}
	doc, ok := found[id]
	return doc, ok, nil
}

// ResolveMany loads all rows with the given ids in one query.
func (r *Repo) ResolveMany(ctx context.Context, kind domrec.Kind, ids []string) (map[string]domrec.Document, error) {
	out := make(map[string]domrec.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	table, err := tableName(kind)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s IN (%s)`,
		quote(table), quote(IDColumn), strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	idCol := -1
	for i, c := range cols {
		if c == IDColumn {
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("table %s has no %s column", table, IDColumn)
	}

	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		fields := make(map[string]string, len(cols)-1)
		for i, c := range cols {
			if i == idCol || !vals[i].Valid {
				continue
			}
			fields[c] = vals[i].String
		}
		id := vals[idCol].String
		out[id] = domrec.NewDocument(id, fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return out, nil
}

func tableName(kind domrec.Kind) (string, error) {
	table := kind.Table
	if table == "" {
		table = kind.Name
	}
	if !domrec.IsValidIdentifier(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// quote wraps a validated identifier, which never contains a double quote.
func quote(ident string) string {
	return `"` + ident + `"`
}
