package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/choropleth/internal/symbology"
)

// LegendSheet is the sheet written by WriteLegendXLSX.
const LegendSheet = "Legend"

var legendHeader = []string{"Key", "Label", "Lower", "Upper", "Color", "Size", "Visible", "Features"}

// WriteLegendXLSX writes one row per range of rs to a workbook at path,
// including hidden ranges. counts supplies the Features column and may be
// nil.
func WriteLegendXLSX(path string, rs *symbology.RangeSet, counts map[string]int) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(LegendSheet)
	if err != nil {
		return eris.Wrap(err, "export: add legend sheet")
	}

	header := sheet.AddRow()
	for _, h := range legendHeader {
		header.AddCell().SetString(h)
	}

	for i, r := range rs.Ranges() {
		key := strconv.Itoa(i)
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(r.Label())
		row.AddCell().SetFloat(r.Lower())
		row.AddCell().SetFloat(r.Upper())
		if sym := r.Symbol(); sym != nil {
			row.AddCell().SetString(symbology.FormatColor(sym.Color()))
			row.AddCell().SetFloat(sym.Size())
		} else {
			row.AddCell().SetString("")
			row.AddCell().SetFloat(0)
		}
		row.AddCell().SetString(strconv.FormatBool(r.RenderState()))
		row.AddCell().SetInt(counts[key])
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
