package source

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/choropleth/internal/symbology"
)

// XLSXOptions configures the XLSX reader. The first row of the sheet is the
// header.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	IDColumn   string // header naming the feature ID; row numbers otherwise
	XColumn    string // longitude header, optional
	YColumn    string // latitude header, optional
}

// OpenXLSX reads one sheet into memory, one feature per data row. Numeric
// cells keep their numeric value; blank cells become nulls. When both
// coordinate columns parse, the feature gets a point geometry.
func OpenXLSX(path string, opts XLSXOptions) (*Memory, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open xlsx %s", path)
	}
	sheet, err := pickSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return NewMemory(), nil
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, c := range sheet.Rows[0].Cells {
		header[i] = strings.TrimSpace(c.String())
	}

	var features []symbology.Feature
	for r, row := range sheet.Rows[1:] {
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		feat := symbology.Feature{ID: strconv.Itoa(r + 1), Attributes: make(map[string]any, len(header))}
		for i, name := range header {
			if name == "" {
				continue
			}
			var v any
			if i < len(row.Cells) {
				v = cellValue(row.Cells[i])
			}
			feat.Attributes[name] = v
			if name == opts.IDColumn && v != nil {
				feat.ID = strings.TrimSpace(row.Cells[i].String())
			}
		}
		if opts.XColumn != "" && opts.YColumn != "" {
			x, xok := feat.Number(opts.XColumn)
			y, yok := feat.Number(opts.YColumn)
			if xok && yok {
				feat.Geometry = geom.NewPointFlat(geom.XY, []float64{x, y}).SetSRID(4326)
			}
		}
		features = append(features, feat)
	}
	return NewMemory(features...), nil
}

func pickSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("source: xlsx sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("source: xlsx sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func cellValue(c *xlsx.Cell) any {
	if c == nil {
		return nil
	}
	if c.Type() == xlsx.CellTypeNumeric {
		if v, err := c.Float(); err == nil {
			return v
		}
	}
	s := strings.TrimSpace(c.String())
	if s == "" {
		return nil
	}
	return s
}
