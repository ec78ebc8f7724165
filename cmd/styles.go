package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/store"
)

var (
	stylesAttribute string
	stylesLimit     int
	stylesOutput    string
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Manage saved styles",
}

var stylesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved styles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		styles, err := st.ListStyles(ctx, store.StyleFilter{Attribute: stylesAttribute, Limit: stylesLimit})
		if err != nil {
			return err
		}
		if stylesOutput == outputJSON {
			return writeJSON(cmd.OutOrStdout(), styles)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tATTRIBUTE\tMODE\tMETHOD\tCLASSES\tUPDATED")
		for _, s := range styles {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				s.ID, s.Name, s.Attribute, s.Mode, s.Method, s.Classes, s.UpdatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

var stylesShowCmd = &cobra.Command{
	Use:   "show <style>",
	Short: "Print a saved style",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, style, err := loadStyle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return writeRangeSet(cmd.OutOrStdout(), style.RangeSet, stylesOutput)
	},
}

var stylesDeleteCmd = &cobra.Command{
	Use:   "delete <style>",
	Short: "Delete a saved style",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, style, err := loadStyle(ctx, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteStyle(ctx, style.ID); err != nil {
			return err
		}
		zap.L().Info("deleted style", zap.String("id", style.ID), zap.String("name", style.Name))
		return nil
	},
}

func init() {
	stylesListCmd.Flags().StringVar(&stylesAttribute, "attribute", "", "only styles of this attribute")
	stylesListCmd.Flags().IntVar(&stylesLimit, "limit", 100, "maximum styles to list")
	stylesCmd.PersistentFlags().StringVarP(&stylesOutput, "output", "o", outputText, "output format: text, json or yaml")

	stylesCmd.AddCommand(stylesListCmd, stylesShowCmd, stylesDeleteCmd)
	rootCmd.AddCommand(stylesCmd)
}
