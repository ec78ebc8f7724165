// Package source loads features and attribute samples from the stores a
// classification can run against: in-memory slices, PostgreSQL/PostGIS
// tables, SQLite tables, shapefiles, XLSX sheets and GeoJSON files.
package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/db"
	"github.com/sells-group/choropleth/internal/symbology"
)

// Source provides features and attribute samples.
type Source interface {
	symbology.ValueSource
	Features(ctx context.Context) ([]symbology.Feature, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverShapefile = "shapefile"
	DriverXLSX      = "xlsx"
	DriverGeoJSON   = "geojson"
)

// Config selects and configures a source.
type Config struct {
	Driver     string         `yaml:"driver" mapstructure:"driver"`
	DSN        string         `yaml:"dsn" mapstructure:"dsn"`
	Path       string         `yaml:"path" mapstructure:"path"`
	Table      string         `yaml:"table" mapstructure:"table"`
	IDColumn   string         `yaml:"id_column" mapstructure:"id_column"`
	GeomColumn string         `yaml:"geom_column" mapstructure:"geom_column"`
	Sheet      string         `yaml:"sheet" mapstructure:"sheet"`
	XColumn    string         `yaml:"x_column" mapstructure:"x_column"`
	YColumn    string         `yaml:"y_column" mapstructure:"y_column"`
	Pool       *db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open builds the source named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Source, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres, "postgis":
		return OpenPostgres(ctx, cfg)
	case DriverSQLite:
		return OpenSQLite(cfg)
	case DriverShapefile, "shp":
		return OpenShapefile(cfg.Path)
	case DriverXLSX:
		return OpenXLSX(cfg.Path, XLSXOptions{
			SheetName: cfg.Sheet,
			IDColumn:  cfg.IDColumn,
			XColumn:   cfg.XColumn,
			YColumn:   cfg.YColumn,
		})
	case DriverGeoJSON:
		return OpenGeoJSON(cfg.Path)
	case DriverMemory, "":
		return nil, eris.New("source: the memory driver has no file or database to open")
	}
	return nil, eris.Errorf("source: unknown driver %q", cfg.Driver)
}

// Memory serves features held in memory.
type Memory struct {
	features []symbology.Feature
}

// NewMemory wraps features.
func NewMemory(features ...symbology.Feature) *Memory {
	return &Memory{features: features}
}

// Values implements symbology.ValueSource. Null and non-numeric attribute
// values are skipped.
func (m *Memory) Values(ctx context.Context, attribute string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "source: memory values")
	}
	return sample(m.features, attribute), nil
}

// Features returns the wrapped features.
func (m *Memory) Features(ctx context.Context) ([]symbology.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "source: memory features")
	}
	return m.features, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func sample(features []symbology.Feature, attribute string) []float64 {
	out := make([]float64, 0, len(features))
	for _, f := range features {
		if v, ok := f.Number(attribute); ok {
			out = append(out, v)
		}
	}
	return out
}
