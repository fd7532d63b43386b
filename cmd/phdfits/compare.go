package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/guygrubbs/phd-fits/internal/compare"
	"github.com/guygrubbs/phd-fits/internal/frame"
	"github.com/guygrubbs/phd-fits/internal/phd"
)

var (
	compareList bool
	compareJSON bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the standard comparison suites",
	Long: `Finds comparison sets (files sharing fixed parameters while one
parameter sweeps) and compares their spectra and frames: per-file metrics,
summary statistics, and metric-versus-parameter correlations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := scanCatalog(cmd)
		if err != nil {
			return err
		}

		// Spectra are clipped to the configured ADC window before analysis:
		// the channels below it carry electronic noise, the top saturates.
		phdLoader := phd.LoaderFunc(func(path string) (*phd.Histogram, error) {
			h, err := phd.Load(path)
			if err != nil {
				return nil, err
			}
			return h.Clip(cfg.Analysis.ADCBinMin, cfg.Analysis.ADCBinMax), nil
		})
		a := compare.NewAnalyzer(frame.TextLoader{}, phdLoader, logger)

		if compareList {
			opps := a.Opportunities(c)
			if compareJSON {
				return printJSON(opps)
			}
			if len(opps) == 0 {
				fmt.Println("No comparison opportunities found")
				return nil
			}
			for _, opp := range opps {
				fmt.Printf("%s: %d set(s)\n", opp.Preset.Name, len(opp.Groups))
				for _, g := range opp.Groups {
					fmt.Printf("  %s (%d files)\n", g.Name, len(g.Files))
				}
			}
			return nil
		}

		outcomes := a.Run(c)
		if compareJSON {
			return printJSON(outcomes)
		}
		if len(outcomes) == 0 {
			fmt.Println("Nothing to compare")
			return nil
		}

		for _, out := range outcomes {
			fmt.Printf("%s [%s] %s\n", out.Preset, out.Data, out.Group)
			fmt.Printf("  varying %s over %v\n", out.Varying, out.Values)
			for _, row := range out.Rows {
				fmt.Printf("    %-28s", row.Label)
				for _, name := range sortedMetricNames(row.Metrics) {
					fmt.Printf("  %s=%.4g", name, row.Metrics[name])
				}
				fmt.Println()
			}
			if len(out.Correlations) > 0 {
				fmt.Println("  correlations:")
				for _, name := range sortedMetricNames(out.Correlations) {
					r := out.Correlations[name]
					marker := ""
					if r >= cfg.Analysis.CorrelationThreshold || r <= -cfg.Analysis.CorrelationThreshold {
						marker = "  <-- significant"
					}
					fmt.Printf("    %-18s %+.3f%s\n", name, r, marker)
				}
			}
			for _, e := range out.Errors {
				fmt.Printf("  skipped: %s\n", e)
			}
			fmt.Println()
		}
		return nil
	},
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
