// Package impact isolates the beam impact region on a detector exposure:
// the connected patch of pixels where particles registered counts, with its
// centroid, bounds, and signal quality.
package impact

import (
	"github.com/guygrubbs/phd-fits/internal/filename"
	"github.com/guygrubbs/phd-fits/internal/frame"
	"github.com/guygrubbs/phd-fits/pkg/geometry"
)

// Region summarizes the impact patch of one exposure. Records are read-only
// after detection; intensities are in per-file normalized units where the
// exposure's own peak is 1.
type Region struct {
	Filename   string  `json:"filename"`
	BeamEnergy float64 `json:"beam_energy"` // eV, 0 when the name carried none
	ESAVoltage float64 `json:"esa_voltage"` // V, 0 when the name carried none

	RotationAngle      *float64             `json:"rotation_angle,omitempty"`
	RotationAngleRange *filename.AngleRange `json:"rotation_angle_range,omitempty"`
	IsAngleRange       bool                 `json:"is_angle_range"`

	CentroidX float64 `json:"centroid_x"` // intensity-weighted, pixels
	CentroidY float64 `json:"centroid_y"`

	PeakIntensity  float64 `json:"peak_intensity"`
	TotalIntensity float64 `json:"total_intensity"`
	Area           int     `json:"region_area"` // pixels above threshold

	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`

	SignalToNoise float64 `json:"signal_to_noise"`
	DataDensity   float64 `json:"data_density"` // Area / full frame pixel count
}

// Centroid returns the weighted centroid as a point.
func (r Region) Centroid() geometry.Point2D {
	return geometry.Point2D{X: r.CentroidX, Y: r.CentroidY}
}

// Bounds returns the axis-aligned bounding box of the signal set.
func (r Region) Bounds() geometry.RectInt {
	return geometry.RectInt{
		X:      r.MinX,
		Y:      r.MinY,
		Width:  r.MaxX - r.MinX + 1,
		Height: r.MaxY - r.MinY + 1,
	}
}

// Geometry describes the detector the exposures came from. Deflection is
// measured against CenterX along the dispersion axis.
type Geometry struct {
	Width   int     `json:"width" yaml:"width"`
	Height  int     `json:"height" yaml:"height"`
	CenterX float64 `json:"center_x" yaml:"center_x"`
}

// DefaultGeometry returns the bench detector: a square 1024x1024 MCP stack.
func DefaultGeometry() Geometry {
	return Geometry{Width: 1024, Height: 1024, CenterX: 512}
}

// Input pairs one exposure with the parameters parsed from its filename.
type Input struct {
	Name   string
	Frame  *frame.Frame
	Params filename.Parameters
}
