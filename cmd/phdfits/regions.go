package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guygrubbs/phd-fits/internal/catalog"
	"github.com/guygrubbs/phd-fits/internal/frame"
	"github.com/guygrubbs/phd-fits/internal/impact"
)

var regionsJSON bool

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Detect beam impact regions",
	Long: `Loads every frame in the data directory and locates the beam impact
region: centroid, bounds, area, and signal-to-noise. Dark frames without a
usable signal are reported as such.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := scanCatalog(cmd)
		if err != nil {
			return err
		}

		inputs := loadFrames(c)
		regions := detectRegions(inputs)

		if regionsJSON {
			return printJSON(regions)
		}

		fmt.Printf("Frames loaded: %d, regions found: %d\n\n", len(inputs), len(regions))
		if len(regions) == 0 {
			return nil
		}
		fmt.Printf("%-44s %9s %9s %7s %10s\n", "file", "centroidX", "centroidY", "area", "snr")
		for _, r := range regions {
			fmt.Printf("%-44s %9.1f %9.1f %7d %10.2f\n",
				trim(r.Filename, 44), r.CentroidX, r.CentroidY, r.Area, r.SignalToNoise)
		}
		return nil
	},
}

// loadFrames loads every image file in the catalog through the text-grid
// loader, skipping files over the configured size limit. Load failures are
// logged and the batch continues without the file.
func loadFrames(c *catalog.Catalog) []impact.Input {
	loader := frame.TextLoader{}
	maxBytes := int64(cfg.Analysis.MaxFileSizeMB * 1024 * 1024)

	var inputs []impact.Input
	for _, f := range c.Files() {
		if !f.IsImage() {
			continue
		}
		if f.Size > maxBytes {
			logger.Warn("file over size limit",
				zap.String("file", f.Base()),
				zap.Int64("bytes", f.Size))
			continue
		}
		fr, err := loader.Load(f.Path)
		if err != nil {
			logger.Warn("frame load failed",
				zap.String("file", f.Base()),
				zap.Error(err))
			continue
		}
		inputs = append(inputs, impact.Input{Name: f.Base(), Frame: fr, Params: f.Params})
	}
	return inputs
}

// detectRegions runs impact detection and applies the data density gate.
func detectRegions(inputs []impact.Input) []impact.Region {
	d := impact.NewDetector(cfg.Analysis.DetectorParams(), logger)

	var regions []impact.Region
	for _, r := range d.DetectAll(inputs) {
		if r.DataDensity < cfg.Analysis.MinDataDensity {
			logger.Warn("region below density gate",
				zap.String("file", r.Filename),
				zap.Float64("density", r.DataDensity))
			continue
		}
		regions = append(regions, r)
	}
	return regions
}

func trim(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
