package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/db"
	"github.com/sells-group/choropleth/internal/symbology"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller keeps ownership.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS styles (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	attribute  TEXT NOT NULL,
	mode       TEXT NOT NULL,
	method     TEXT NOT NULL,
	classes    INTEGER NOT NULL DEFAULT 0,
	document   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_styles_attribute ON styles(attribute);
`

// Migrate creates the styles table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool when the store opened it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// CreateStyle saves rs under name with a fresh id.
func (s *PostgresStore) CreateStyle(ctx context.Context, name string, rs *symbology.RangeSet) (*Style, error) {
	st := &Style{ID: uuid.New().String(), Name: name}
	doc, err := summarize(st, rs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now

	_, err = s.pool.Exec(ctx,
		`INSERT INTO styles (id, name, attribute, mode, method, classes, document, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID, st.Name, st.Attribute, st.Mode, st.Method, st.Classes, string(doc), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert style %s", name)
	}
	return st, nil
}

// UpdateStyle replaces the stored RangeSet of style id.
func (s *PostgresStore) UpdateStyle(ctx context.Context, id string, rs *symbology.RangeSet) error {
	st := &Style{ID: id}
	doc, err := summarize(st, rs)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE styles SET attribute = $1, mode = $2, method = $3, classes = $4, document = $5, updated_at = $6 WHERE id = $7`,
		st.Attribute, st.Mode, st.Method, st.Classes, string(doc), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update style %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "style %s", id)
	}
	return nil
}

// GetStyle loads style id with its RangeSet.
func (s *PostgresStore) GetStyle(ctx context.Context, id string) (*Style, error) {
	return s.getBy(ctx, "id", id)
}

// GetStyleByName loads the style called name with its RangeSet.
func (s *PostgresStore) GetStyleByName(ctx context.Context, name string) (*Style, error) {
	return s.getBy(ctx, "name", name)
}

func (s *PostgresStore) getBy(ctx context.Context, column, ref string) (*Style, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s, document FROM styles WHERE %s = $1`, styleColumns, column),
		ref,
	)
	var st Style
	var doc string
	err := row.Scan(&st.ID, &st.Name, &st.Attribute, &st.Mode, &st.Method, &st.Classes, &st.CreatedAt, &st.UpdatedAt, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "style %s", ref)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get style %s", ref)
	}
	if err := decode(&st, []byte(doc)); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStyles returns style summaries, newest first.
func (s *PostgresStore) ListStyles(ctx context.Context, filter StyleFilter) ([]Style, error) {
	query := `SELECT ` + styleColumns + ` FROM styles WHERE 1=1`
	var args []any

	if filter.Attribute != "" {
		args = append(args, filter.Attribute)
		query += fmt.Sprintf(` AND attribute = $%d`, len(args))
	}
	args = append(args, listLimit(filter))
	query += fmt.Sprintf(` ORDER BY created_at DESC, name LIMIT $%d`, len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list styles")
	}
	defer rows.Close()

	var styles []Style
	for rows.Next() {
		var st Style
		if err := rows.Scan(&st.ID, &st.Name, &st.Attribute, &st.Mode, &st.Method, &st.Classes, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan style")
		}
		styles = append(styles, st)
	}
	return styles, eris.Wrap(rows.Err(), "postgres: list styles iterate")
}

// DeleteStyle removes style id.
func (s *PostgresStore) DeleteStyle(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM styles WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete style %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "style %s", id)
	}
	return nil
}
