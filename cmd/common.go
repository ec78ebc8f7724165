package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/choropleth/internal/source"
	"github.com/sells-group/choropleth/internal/store"
	"github.com/sells-group/choropleth/internal/symbology"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// openSource opens the configured feature source. The memory driver has
// nothing to open, so callers that can run without features get nil.
func openSource(ctx context.Context, optional bool) (source.Source, error) {
	if optional && (cfg.Source.Driver == "" || cfg.Source.Driver == source.DriverMemory) {
		return nil, nil
	}
	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		return nil, eris.Wrap(err, "open source")
	}
	return src, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// loadStyle opens the store and resolves ref by id or name.
func loadStyle(ctx context.Context, ref string) (store.Store, *store.Style, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	style, err := store.Resolve(ctx, st, ref)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return st, style, nil
}

// writeRangeSet prints rs as a class table, a JSON document or a YAML
// document.
func writeRangeSet(w io.Writer, rs *symbology.RangeSet, output string) error {
	switch output {
	case outputJSON:
		return writeJSON(w, rs.ToDocument())
	case outputYAML:
		data, err := symbology.Marshal(rs)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case outputText, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "attribute: %s\tmode: %s\tmethod: %s\n", rs.Attribute(), rs.Mode(), rs.GraduatedMethod())
		fmt.Fprintln(tw, "KEY\tLABEL\tLOWER\tUPPER\tCOLOR\tSIZE\tVISIBLE")
		for i, r := range rs.Ranges() {
			color, size := "", 0.0
			if sym := r.Symbol(); sym != nil {
				color, size = symbology.FormatColor(sym.Color()), sym.Size()
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n", i, r.Label(),
				formatFloat(r.Lower()), formatFloat(r.Upper()), color, formatFloat(size), r.RenderState())
		}
		return tw.Flush()
	}
	return eris.Errorf("unknown output format %q", output)
}

func writeLegend(w io.Writer, items []symbology.LegendItem, output string) error {
	if output == outputJSON {
		return writeJSON(w, items)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tSTYLE\tCHECKED")
	for _, it := range items {
		style := ""
		if it.Style != nil {
			style = it.Style.Color
			if it.Style.Size > 0 {
				style += " " + formatFloat(it.Style.Size)
			}
		}
		for _, sc := range it.Sizes {
			style += " " + sc.Label + "=" + formatFloat(sc.Size)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", it.Key, it.Label, style, it.Checked)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
