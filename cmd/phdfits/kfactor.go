package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guygrubbs/phd-fits/internal/kfactor"
)

var kfactorJSON bool

var kfactorCmd = &cobra.Command{
	Use:   "kfactor",
	Short: "Estimate the analyzer constant",
	Long: `Detects impact regions and estimates the ESA k-factor from every
exposure carrying both a beam energy and a deflection voltage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := scanCatalog(cmd)
		if err != nil {
			return err
		}

		regions := detectRegions(loadFrames(c))

		e := kfactor.NewEstimator(cfg.Analysis.Detector, logger)
		res, err := e.Estimate(regions)
		if errors.Is(err, kfactor.ErrNoMeasurements) {
			fmt.Println("No exposure carries both a beam energy and an ESA voltage")
			return nil
		}
		if err != nil {
			return err
		}

		if kfactorJSON {
			return printJSON(res)
		}

		fmt.Printf("Measurements: %d\n", res.N)
		fmt.Printf("k-factor: %.3f +/- %.3f (median %.3f, range %.3f..%.3f)\n",
			res.Mean, res.Std, res.Median, res.Min, res.Max)
		fmt.Println()
		fmt.Printf("%-44s %10s %10s %8s\n", "file", "energy", "voltage", "k")
		for _, m := range res.Measurements {
			fmt.Printf("%-44s %10.0f %10.0f %8.3f\n",
				trim(m.Region.Filename, 44), m.Region.BeamEnergy, m.Region.ESAVoltage, m.KFactor)
		}
		return nil
	},
}
