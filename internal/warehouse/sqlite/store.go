// Package sqlite is the local warehouse backend on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/warehouse"
	"github.com/kailas-cloud/patentsearch/internal/warehouse/sqlite/migrations"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var _ warehouse.Querier = (*Store)(nil)

// Store is a SQLite-backed patent warehouse.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and applies migrations.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := path
	if path != MemoryPath {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect returns the SQLite SQL dialect.
func (s *Store) Dialect() warehouse.Dialect {
	return dialect{}
}

// Query runs sql with named parameters and returns every row as a column map.
// List columns come back as JSON strings; the normalizer decodes them.
func (s *Store) Query(ctx context.Context, query string, params []warehouse.Param) ([]patent.Row, error) {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = sql.Named(p.Name, p.Value)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []patent.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(patent.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// PatentRow is a warehouse row as written by Upsert.
type PatentRow struct {
	PublicationNumber string   `json:"publication_number"`
	Title             string   `json:"title"`
	Abstract          string   `json:"abstract"`
	PublicationDate   string   `json:"publication_date"`
	Assignee          string   `json:"assignee"`
	Inventors         []string `json:"inventors"`
	CountryCode       string   `json:"country_code"`
	KindCode          string   `json:"kind_code"`
	FamilyID          string   `json:"family_id"`
	CPCCodes          []string `json:"cpc_codes"`
	Citations         []string `json:"citations"`
}

// Upsert inserts or replaces rows in a single transaction.
func (s *Store) Upsert(ctx context.Context, rows []PatentRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO patents (publication_number, title, abstract, publication_date, assignee,
			inventors, country_code, kind_code, family_id, cpc_codes, citations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(publication_number) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			publication_date = excluded.publication_date,
			assignee = excluded.assignee,
			inventors = excluded.inventors,
			country_code = excluded.country_code,
			kind_code = excluded.kind_code,
			family_id = excluded.family_id,
			cpc_codes = excluded.cpc_codes,
			citations = excluded.citations
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		if r.PublicationNumber == "" {
			return fmt.Errorf("row %d: publication_number is required", i)
		}
		if _, err := stmt.ExecContext(ctx,
			r.PublicationNumber, r.Title, r.Abstract, r.PublicationDate, r.Assignee,
			jsonList(r.Inventors), r.CountryCode, r.KindCode, r.FamilyID,
			jsonList(r.CPCCodes), jsonList(r.Citations),
		); err != nil {
			return fmt.Errorf("upsert %s: %w", r.PublicationNumber, err)
		}
	}
	return tx.Commit()
}

func jsonList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_patents.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

type dialect struct{}

func (dialect) Table() string { return "patents" }

func (dialect) Like(expr, param string) string {
	return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, expr, param)
}

func (dialect) ArrayAnyLike(col, param string) string {
	return fmt.Sprintf(`EXISTS (SELECT 1 FROM json_each(%s) AS e WHERE e.value LIKE %s ESCAPE '\')`, col, param)
}

func (dialect) ArrayContains(col, param string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) AS e WHERE e.value = %s)", col, param)
}

func (dialect) Unnest(col, alias string) (from, elem string) {
	return fmt.Sprintf("json_each(%s) AS %s", col, alias), alias + ".value"
}
