package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/db"
	"github.com/sells-group/choropleth/internal/symbology"
)

// Postgres reads features from a PostgreSQL table, decoding PostGIS
// geometries when a geometry column is configured.
type Postgres struct {
	pool       db.Pool
	table      string
	idColumn   string
	geomColumn string
	closeFn    func()
}

// NewPostgres wraps an existing pool. The caller keeps ownership of pool.
func NewPostgres(pool db.Pool, table, idColumn, geomColumn string) *Postgres {
	if idColumn == "" {
		idColumn = "id"
	}
	return &Postgres{pool: pool, table: table, idColumn: idColumn, geomColumn: geomColumn}
}

// OpenPostgres connects to cfg.DSN and reads cfg.Table.
func OpenPostgres(ctx context.Context, cfg Config) (*Postgres, error) {
	if cfg.Table == "" {
		return nil, eris.New("source: postgres requires a table")
	}
	pool, err := db.Connect(ctx, cfg.DSN, cfg.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "source: postgres connect")
	}
	p := NewPostgres(pool, cfg.Table, cfg.IDColumn, cfg.GeomColumn)
	p.closeFn = pool.Close
	return p, nil
}

// Values implements symbology.ValueSource. The attribute is cast to
// double precision server side and nulls are filtered out.
func (p *Postgres) Values(ctx context.Context, attribute string) ([]float64, error) {
	col := pgx.Identifier{attribute}.Sanitize()
	query := fmt.Sprintf("SELECT %s::float8 FROM %s WHERE %s IS NOT NULL",
		col, db.Identifier(p.table).Sanitize(), col)

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "source: postgres values %s.%s", p.table, attribute)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrapf(err, "source: postgres scan %s.%s", p.table, attribute)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Features loads every row. Non-geometry columns become attributes.
func (p *Postgres) Features(ctx context.Context) ([]symbology.Feature, error) {
	geomExpr, exclude := "NULL::bytea", ""
	if p.geomColumn != "" {
		geomExpr = fmt.Sprintf("ST_AsEWKB(t.%s)", pgx.Identifier{p.geomColumn}.Sanitize())
		exclude = p.geomColumn
	}
	query := fmt.Sprintf("SELECT t.%s::text, %s, to_jsonb(t) - $1::text FROM %s AS t",
		pgx.Identifier{p.idColumn}.Sanitize(), geomExpr, db.Identifier(p.table).Sanitize())

	rows, err := p.pool.Query(ctx, query, exclude)
	if err != nil {
		return nil, eris.Wrapf(err, "source: postgres features %s", p.table)
	}
	defer rows.Close()

	var (
		features []symbology.Feature
		skipped  int
	)
	for rows.Next() {
		var (
			id    string
			raw   []byte
			attrs map[string]any
		)
		if err := rows.Scan(&id, &raw, &attrs); err != nil {
			return nil, eris.Wrapf(err, "source: postgres scan %s", p.table)
		}
		f := symbology.Feature{ID: id, Attributes: attrs}
		if len(raw) > 0 {
			g, err := ewkb.Unmarshal(raw)
			if err != nil {
				skipped++
				continue
			}
			f.Geometry = g
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "source: postgres rows %s", p.table)
	}
	if skipped > 0 {
		zap.L().Debug("source: skipped undecodable geometries",
			zap.String("table", p.table),
			zap.Int("skipped", skipped),
		)
	}
	return features, nil
}

// Close releases the pool when this source opened it.
func (p *Postgres) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}
