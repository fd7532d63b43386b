package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guygrubbs/phd-fits/internal/resolution"
)

var (
	resolutionMin  int
	resolutionJSON bool
)

var resolutionCmd = &cobra.Command{
	Use:   "resolution",
	Short: "Survey analyzer resolution across voltage sweeps",
	Long: `Groups impact regions by beam energy and rotation angle and reports,
for each sufficiently swept cell, how spot size and signal quality respond
to the deflection voltage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := scanCatalog(cmd)
		if err != nil {
			return err
		}

		regions := detectRegions(loadFrames(c))

		params := resolution.DefaultParams()
		params.Geometry = cfg.Analysis.Detector
		if resolutionMin > 0 {
			params.MinVoltagePoints = resolutionMin
		}

		series := resolution.NewAnalyzer(params, logger).Survey(regions)
		if resolutionJSON {
			return printJSON(series)
		}

		if len(series) == 0 {
			fmt.Println("No sufficiently swept (energy, angle) cell found")
			return nil
		}
		for _, s := range series {
			if s.Angle != nil {
				fmt.Printf("beam %.0f eV, angle %.0f deg (%d voltages)\n",
					s.BeamEnergy, *s.Angle, len(s.Voltages))
			} else {
				fmt.Printf("beam %.0f eV, platform parked (%d voltages)\n",
					s.BeamEnergy, len(s.Voltages))
			}
			fmt.Printf("  %10s %12s %12s %8s\n", "voltage", "angular(%)", "snr", "k")
			for _, p := range s.Points {
				fmt.Printf("  %10.0f %12.3f %12.2f %8.3f\n",
					p.ESAVoltage, p.AngularResolution, p.SpatialResolution, p.KFactor)
			}
		}
		return nil
	},
}
