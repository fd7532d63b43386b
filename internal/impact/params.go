package impact

// DefaultParams returns default detection parameters. These are tuned for
// MCP exposures where the beam spot sits well above the dark-count floor.
func DefaultParams() Params {
	return Params{
		// Pixels above this fraction of the per-file peak count as signal.
		// 5% keeps faint spots while rejecting scattered dark counts.
		NoiseRatio: 0.05,

		// Fewer pixels than this is noise, not a beam spot.
		MinRegionSize: 10,

		Geometry: DefaultGeometry(),
	}
}

// Params holds detection parameters. See DefaultParams for tuning notes.
type Params struct {
	NoiseRatio    float64  `json:"noise_ratio" yaml:"noise_ratio"`
	MinRegionSize int      `json:"min_region_size" yaml:"min_region_size"`
	Geometry      Geometry `json:"geometry" yaml:"geometry"`
}

// WithNoiseRatio returns a copy of params with a custom threshold fraction.
func (p Params) WithNoiseRatio(ratio float64) Params {
	p.NoiseRatio = ratio
	return p
}

// WithMinRegionSize returns a copy of params with a custom pixel floor.
func (p Params) WithMinRegionSize(n int) Params {
	p.MinRegionSize = n
	return p
}

// WithGeometry returns a copy of params for a different detector.
func (p Params) WithGeometry(g Geometry) Params {
	p.Geometry = g
	return p
}
