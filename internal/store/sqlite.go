package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/choropleth/internal/symbology"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS styles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	attribute  TEXT NOT NULL,
	mode       TEXT NOT NULL,
	method     TEXT NOT NULL,
	classes    INTEGER NOT NULL DEFAULT 0,
	document   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_styles_attribute ON styles(attribute);
`

// Migrate creates the styles table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateStyle saves rs under name with a fresh id.
func (s *SQLiteStore) CreateStyle(ctx context.Context, name string, rs *symbology.RangeSet) (*Style, error) {
	st := &Style{ID: uuid.New().String(), Name: name}
	doc, err := summarize(st, rs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO styles (id, name, attribute, mode, method, classes, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.Attribute, st.Mode, st.Method, st.Classes, string(doc), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert style %s", name)
	}
	return st, nil
}

// UpdateStyle replaces the stored RangeSet of style id.
func (s *SQLiteStore) UpdateStyle(ctx context.Context, id string, rs *symbology.RangeSet) error {
	st := &Style{ID: id}
	doc, err := summarize(st, rs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE styles SET attribute = ?, mode = ?, method = ?, classes = ?, document = ?, updated_at = ? WHERE id = ?`,
		st.Attribute, st.Mode, st.Method, st.Classes, string(doc), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update style %s", id)
	}
	return checkRowsAffected(res, id)
}

// GetStyle loads style id with its RangeSet.
func (s *SQLiteStore) GetStyle(ctx context.Context, id string) (*Style, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+styleColumns+`, document FROM styles WHERE id = ?`, id)
	return scanFullStyle(row, id)
}

// GetStyleByName loads the style called name with its RangeSet.
func (s *SQLiteStore) GetStyleByName(ctx context.Context, name string) (*Style, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+styleColumns+`, document FROM styles WHERE name = ?`, name)
	return scanFullStyle(row, name)
}

// ListStyles returns style summaries, newest first.
func (s *SQLiteStore) ListStyles(ctx context.Context, filter StyleFilter) ([]Style, error) {
	query := `SELECT ` + styleColumns + ` FROM styles WHERE 1=1`
	var args []any

	if filter.Attribute != "" {
		query += ` AND attribute = ?`
		args = append(args, filter.Attribute)
	}
	query += ` ORDER BY created_at DESC, name LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list styles")
	}
	defer rows.Close()

	var styles []Style
	for rows.Next() {
		var st Style
		if err := rows.Scan(&st.ID, &st.Name, &st.Attribute, &st.Mode, &st.Method, &st.Classes, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan style")
		}
		styles = append(styles, st)
	}
	return styles, eris.Wrap(rows.Err(), "sqlite: list styles iterate")
}

// DeleteStyle removes style id.
func (s *SQLiteStore) DeleteStyle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM styles WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete style %s", id)
	}
	return checkRowsAffected(res, id)
}

// helpers

const styleColumns = `id, name, attribute, mode, method, classes, created_at, updated_at`

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "style %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFullStyle(row scannable, ref string) (*Style, error) {
	var st Style
	var doc string
	err := row.Scan(&st.ID, &st.Name, &st.Attribute, &st.Mode, &st.Method, &st.Classes, &st.CreatedAt, &st.UpdatedAt, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "style %s", ref)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan style")
	}
	if err := decode(&st, []byte(doc)); err != nil {
		return nil, err
	}
	return &st, nil
}
