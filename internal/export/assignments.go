package export

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/db"
	"github.com/sells-group/choropleth/internal/symbology"
)

// Assignment records the class one feature fell into under a style.
type Assignment struct {
	Style     string  `json:"style"`
	FeatureID string  `json:"feature_id"`
	Value     float64 `json:"value"`
	LegendKey string  `json:"legend_key"`
	Label     string  `json:"label"`
	Color     string  `json:"color"`
	Size      float64 `json:"size"`
}

// AssignmentColumns is the column order of the assignments table.
var AssignmentColumns = []string{"style", "feature_id", "value", "legend_key", "label", "color", "size"}

var assignmentKeys = []string{"style", "feature_id"}

// Assign classifies features under style. Features without an ID or
// without a visible class are skipped.
func Assign(style string, features []symbology.Feature, rs *symbology.RangeSet) []Assignment {
	out := make([]Assignment, 0, len(features))
	for _, f := range features {
		if f.ID == "" {
			continue
		}
		m, ok := Classify(rs, f)
		if !ok {
			continue
		}
		v, _ := f.Number(rs.Attribute())
		a := Assignment{
			Style:     style,
			FeatureID: f.ID,
			Value:     v,
			LegendKey: m.Key,
			Label:     m.Range.Label(),
		}
		if m.Symbol != nil {
			a.Color = symbology.FormatColor(m.Symbol.Color())
			a.Size = m.Symbol.Size()
		}
		out = append(out, a)
	}
	return out
}

// EnsureAssignmentsTable creates table when it does not exist.
func EnsureAssignmentsTable(ctx context.Context, pool db.Pool, table string) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	style      TEXT NOT NULL,
	feature_id TEXT NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	legend_key TEXT NOT NULL,
	label      TEXT NOT NULL,
	color      TEXT NOT NULL,
	size       DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (style, feature_id)
)`, db.Identifier(table).Sanitize()))
	return eris.Wrapf(err, "export: create table %s", table)
}

// WriteAssignments stores assignments in table. With replace set, rows for
// the same style and feature are overwritten through a staged upsert;
// otherwise rows are appended with COPY.
func WriteAssignments(ctx context.Context, pool db.Pool, table string, as []Assignment, replace bool) (int64, error) {
	rows := make([][]any, len(as))
	for i, a := range as {
		rows[i] = []any{a.Style, a.FeatureID, a.Value, a.LegendKey, a.Label, a.Color, a.Size}
	}

	var (
		n   int64
		err error
	)
	if replace {
		n, err = db.BulkUpsert(ctx, pool, db.UpsertConfig{
			Table:        table,
			Columns:      AssignmentColumns,
			ConflictKeys: assignmentKeys,
		}, rows)
	} else {
		n, err = db.CopyFrom(ctx, pool, table, AssignmentColumns, rows)
	}
	if err != nil {
		return 0, eris.Wrap(err, "export: write assignments")
	}

	zap.L().With(zap.String("component", "export")).Info("wrote class assignments",
		zap.String("table", table),
		zap.Int64("rows", n),
		zap.Bool("replace", replace),
	)
	return n, nil
}
