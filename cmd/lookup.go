package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <style> <value>...",
	Short: "Show which class and symbol each value falls into",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, style, err := loadStyle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VALUE\tKEY\tLABEL\tCOLOR")
		for _, arg := range args[1:] {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return eris.Errorf("value %q is not a number", arg)
			}
			key, ok := style.RangeSet.LegendKeyForValue(v)
			if !ok {
				fmt.Fprintf(tw, "%s\t-\tunclassified\t-\n", arg)
				continue
			}
			label, color := "", ""
			if i, err := strconv.Atoi(key); err == nil {
				if r, ok := style.RangeSet.Range(i); ok {
					label = r.Label()
				}
			}
			if sym, ok := style.RangeSet.SymbolForValue(v); ok {
				color = sym.Render().Color
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", arg, key, label, color)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
