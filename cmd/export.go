package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/db"
	"github.com/sells-group/choropleth/internal/export"
)

var (
	exportOut     string
	exportAll     bool
	exportReplace bool
	exportTable   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export classified features, class assignments or legends",
}

var exportGeoJSONCmd = &cobra.Command{
	Use:   "geojson <style>",
	Short: "Write the source features with class styling as GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, style, err := loadStyle(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		src, err := openSource(ctx, false)
		if err != nil {
			return err
		}
		defer src.Close() //nolint:errcheck

		features, err := src.Features(ctx)
		if err != nil {
			return err
		}
		fc, sum := export.FeatureCollection(features, style.RangeSet, export.Options{IncludeUnclassified: exportAll})

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", exportOut)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		if err := export.WriteGeoJSON(w, fc); err != nil {
			return err
		}
		zap.L().Info("exported geojson",
			zap.String("style", style.Name),
			zap.Int("features", sum.Total),
			zap.Int("classified", sum.Classified),
		)
		return nil
	},
}

var exportAssignmentsCmd = &cobra.Command{
	Use:   "assignments <style>",
	Short: "Write per-feature class assignments to Postgres",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if exportTable != "" {
			cfg.Export.Table = exportTable
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, style, err := loadStyle(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		src, err := openSource(ctx, false)
		if err != nil {
			return err
		}
		defer src.Close() //nolint:errcheck

		features, err := src.Features(ctx)
		if err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.Export.DatabaseURL, nil)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := export.EnsureAssignmentsTable(ctx, pool, cfg.Export.Table); err != nil {
			return err
		}
		_, err = export.WriteAssignments(ctx, pool, cfg.Export.Table,
			export.Assign(style.Name, features, style.RangeSet), exportReplace)
		return err
	},
}

var exportLegendCmd = &cobra.Command{
	Use:   "legend <style>",
	Short: "Write a style's legend to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if exportOut == "" {
			return eris.New("--out is required")
		}
		st, style, err := loadStyle(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var counts map[string]int
		src, err := openSource(ctx, true)
		if err != nil {
			return err
		}
		if src != nil {
			defer src.Close() //nolint:errcheck
			features, err := src.Features(ctx)
			if err != nil {
				return err
			}
			counts = export.Summarize(features, style.RangeSet).Counts
		}
		return export.WriteLegendXLSX(exportOut, style.RangeSet, counts)
	},
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportOut, "out", "", "output file")
	exportGeoJSONCmd.Flags().BoolVar(&exportAll, "all", false, "include features outside every visible class")
	exportAssignmentsCmd.Flags().BoolVar(&exportReplace, "replace", false, "upsert rows instead of appending")
	exportAssignmentsCmd.Flags().StringVar(&exportTable, "table", "", "target table (default from config)")

	exportCmd.AddCommand(exportGeoJSONCmd, exportAssignmentsCmd, exportLegendCmd)
	rootCmd.AddCommand(exportCmd)
}
