package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/choropleth/internal/db"
	"github.com/sells-group/choropleth/internal/symbology"
)

// SQLite reads features from a SQLite table. An optional geometry column
// holds GeoJSON geometry text.
type SQLite struct {
	db         *sql.DB
	table      string
	idColumn   string
	geomColumn string
	owned      bool
}

// NewSQLite wraps an open database. The caller keeps ownership of conn.
func NewSQLite(conn *sql.DB, table, idColumn, geomColumn string) *SQLite {
	return &SQLite{db: conn, table: table, idColumn: idColumn, geomColumn: geomColumn}
}

// OpenSQLite opens the database file at cfg.Path and reads cfg.Table.
func OpenSQLite(cfg Config) (*SQLite, error) {
	if cfg.Table == "" {
		return nil, eris.New("source: sqlite requires a table")
	}
	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open sqlite %s", cfg.Path)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "source: sqlite %s", cfg.Path)
	}
	s := NewSQLite(conn, cfg.Table, cfg.IDColumn, cfg.GeomColumn)
	s.owned = true
	return s, nil
}

// Values implements symbology.ValueSource. SQLite columns are dynamically
// typed, so values that do not convert to a number are skipped.
func (s *SQLite) Values(ctx context.Context, attribute string) ([]float64, error) {
	col := pgx.Identifier{attribute}.Sanitize()
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL",
		col, db.Identifier(s.table).Sanitize(), col))
	if err != nil {
		return nil, eris.Wrapf(err, "source: sqlite values %s.%s", s.table, attribute)
	}
	defer rows.Close() //nolint:errcheck

	var values []float64
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrapf(err, "source: sqlite scan %s.%s", s.table, attribute)
		}
		if b, ok := raw.([]byte); ok {
			raw = string(b)
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Features loads every row of the table.
func (s *SQLite) Features(ctx context.Context) ([]symbology.Feature, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+db.Identifier(s.table).Sanitize())
	if err != nil {
		return nil, eris.Wrapf(err, "source: sqlite features %s", s.table)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(err, "source: sqlite columns %s", s.table)
	}

	var (
		features []symbology.Feature
		badGeom  int
	)
	for n := 1; rows.Next(); n++ {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "source: sqlite scan %s", s.table)
		}

		f := symbology.Feature{ID: fmt.Sprint(n), Attributes: make(map[string]any, len(cols))}
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			switch {
			case col == s.geomColumn:
				if text := cast.ToString(v); text != "" {
					if err := geojson.Unmarshal([]byte(text), &f.Geometry); err != nil {
						badGeom++
					}
				}
			case col == s.idColumn:
				f.ID = cast.ToString(v)
				f.Attributes[col] = v
			default:
				f.Attributes[col] = v
			}
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "source: sqlite rows %s", s.table)
	}
	if badGeom > 0 {
		zap.L().Debug("source: undecodable sqlite geometries",
			zap.String("table", s.table),
			zap.Int("count", badGeom),
		)
	}
	return features, nil
}

// Close closes the database when this source opened it.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return eris.Wrap(s.db.Close(), "source: close sqlite")
}
