package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guygrubbs/phd-fits/internal/frame"
	"github.com/guygrubbs/phd-fits/internal/ratemap"
)

var (
	ratemapJSON bool
	ratemapSave string
)

var ratemapCmd = &cobra.Command{
	Use:   "ratemap",
	Short: "Build the integrated count-rate map",
	Long: `Normalizes every exposure to a common count rate and stacks the grids
into one coverage map across all beam energies and pointing angles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := scanCatalog(cmd)
		if err != nil {
			return err
		}

		params := ratemap.Params{
			TargetRate: cfg.Analysis.TargetCountRate,
			Geometry:   cfg.Analysis.Detector,
		}
		a := ratemap.NewAnalyzer(params, logger)

		contribs := a.ContributeAll(loadFrames(c))
		m, err := a.Integrate(contribs)
		if errors.Is(err, ratemap.ErrNoContributions) {
			fmt.Println("No frame carries any counts")
			return nil
		}
		if err != nil {
			return err
		}

		if ratemapSave != "" {
			// Exports use the configured display normalization so downstream
			// plotting sees a consistent contrast window.
			grid, err := frame.Normalize(m.Grid,
				cfg.Analysis.FrameNormalization,
				cfg.Analysis.ContrastLow, cfg.Analysis.ContrastHigh)
			if err != nil {
				return err
			}
			path, err := resultPath(ratemapSave)
			if err != nil {
				return err
			}
			if err := writeGrid(path, grid, m); err != nil {
				return err
			}
			fmt.Printf("Integrated grid written to %s\n", path)
		}

		if ratemapJSON {
			return printJSON(m)
		}

		fmt.Printf("Files integrated: %d\n", m.Files)
		fmt.Printf("Total collection time: %.1f s\n", m.TotalCollectionTime)
		fmt.Printf("Raw counts: %.0f, integrated: %.0f (target %.0f counts/s)\n",
			m.TotalRawCounts, m.IntegratedTotal, m.TargetRate)
		fmt.Printf("Peak integrated rate: %.2f, active pixels: %d\n", m.PeakRate, m.ActivePixels)
		fmt.Printf("Beam energies (eV): %v\n", m.BeamEnergies)
		fmt.Printf("ESA voltages (V): %v\n", m.ESAVoltages)
		if m.Elevation != nil {
			fmt.Printf("Elevation coverage: %.1f to %.1f deg\n", m.Elevation.Min, m.Elevation.Max)
		}
		if m.Azimuth != nil {
			fmt.Printf("Azimuth coverage: %.1f to %.1f deg\n", m.Azimuth.Min, m.Azimuth.Max)
		}

		for _, contrib := range contribs {
			if !contrib.TimeFromHeader {
				fmt.Printf("  estimated time %.1fs for %s\n", contrib.CollectionTime, contrib.Filename)
			}
		}
		return nil
	},
}

// writeGrid exports a grid as text, loadable by the same text-grid reader
// the analysis passes use.
func writeGrid(path string, grid *frame.Frame, m *ratemap.IntegratedMap) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# integrated rate map: %d files, target %.0f counts/s, %s normalization\n",
		m.Files, m.TargetRate, cfg.Analysis.FrameNormalization)
	for _, row := range grid.Pixels {
		for x, v := range row {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
