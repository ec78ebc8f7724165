package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/choropleth/internal/symbology"
)

var (
	legendHidden   bool
	legendCollapse bool
	legendCheck    []string
	legendUncheck  []string
	legendOutput   string
)

var legendCmd = &cobra.Command{
	Use:   "legend <style>",
	Short: "Print a saved style's legend, optionally toggling items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, style, err := loadStyle(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rs := style.RangeSet
		changed := false
		for _, keys := range []struct {
			keys  []string
			state bool
		}{{legendCheck, true}, {legendUncheck, false}} {
			for _, key := range keys.keys {
				if !rs.CheckLegendItem(key, keys.state) {
					return eris.Errorf("unknown legend key %q", key)
				}
				changed = true
			}
		}
		if changed {
			if err := st.UpdateStyle(ctx, style.ID, rs); err != nil {
				return err
			}
		}

		items := rs.LegendItems(symbology.LegendOptions{
			IncludeHidden: legendHidden,
			CollapseSizes: legendCollapse,
		})
		return writeLegend(cmd.OutOrStdout(), items, legendOutput)
	},
}

func init() {
	legendCmd.Flags().BoolVar(&legendHidden, "hidden", false, "include hidden ranges")
	legendCmd.Flags().BoolVar(&legendCollapse, "collapse", false, "fold a size legend into one item")
	legendCmd.Flags().StringSliceVar(&legendCheck, "check", nil, "legend keys to show")
	legendCmd.Flags().StringSliceVar(&legendUncheck, "uncheck", nil, "legend keys to hide")
	legendCmd.Flags().StringVarP(&legendOutput, "output", "o", outputText, "output format: text or json")
	rootCmd.AddCommand(legendCmd)
}
