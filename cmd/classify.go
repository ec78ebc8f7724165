package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth/internal/classify"
	"github.com/sells-group/choropleth/internal/symbology"
	"github.com/sells-group/choropleth/internal/thematic"
)

var (
	classifyAttribute string
	classifyMode      string
	classifyClasses   int
	classifyBreaks    []float64
	classifySave      string
	classifyOutput    string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify an attribute of the configured source into graduated ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("classify"); err != nil {
			return err
		}
		tmpl, err := thematic.FromConfig(cfg)
		if err != nil {
			return err
		}

		var rs *symbology.RangeSet
		if len(classifyBreaks) > 0 {
			if rs, err = tmpl.FromBreaks(classifyAttribute, classifyBreaks); err != nil {
				return err
			}
		} else {
			modeName := classifyMode
			if modeName == "" {
				modeName = cfg.Classify.Mode
			}
			mode, err := classify.ParseMode(modeName)
			if err != nil {
				return err
			}
			n := classifyClasses
			if n == 0 {
				n = cfg.Classify.Classes
			}

			src, err := openSource(ctx, false)
			if err != nil {
				return err
			}
			defer src.Close() //nolint:errcheck

			var res *classify.Result
			rs, res, err = tmpl.Build(ctx, src, classifyAttribute, mode, n)
			if err != nil {
				return eris.Wrapf(err, "classify %s", classifyAttribute)
			}
			if res != nil && res.Degenerate {
				zap.L().Warn("fewer distinct values than classes",
					zap.String("attribute", classifyAttribute),
					zap.Int("requested", res.Requested),
					zap.Int("classes", rs.Len()),
				)
			}
		}

		if classifySave != "" {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			saved, err := st.CreateStyle(ctx, classifySave, rs)
			if err != nil {
				return err
			}
			zap.L().Info("saved style", zap.String("id", saved.ID), zap.String("name", saved.Name))
		}

		return writeRangeSet(cmd.OutOrStdout(), rs, classifyOutput)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyAttribute, "attribute", "", "numeric attribute to classify")
	classifyCmd.Flags().StringVar(&classifyMode, "mode", "", "classification mode (default from config)")
	classifyCmd.Flags().IntVar(&classifyClasses, "classes", 0, "number of classes (default from config)")
	classifyCmd.Flags().Float64SliceVar(&classifyBreaks, "breaks", nil, "explicit class breaks, lowest first")
	classifyCmd.Flags().StringVar(&classifySave, "save", "", "save the result as a named style")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", outputText, "output format: text, json or yaml")
	_ = classifyCmd.MarkFlagRequired("attribute")
	rootCmd.AddCommand(classifyCmd)
}
