// Package resolution surveys analyzer resolution: how the impact spot's
// extent and signal quality respond to deflection voltage at each beam
// energy and rotation angle.
package resolution

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/guygrubbs/phd-fits/internal/impact"
)

// Params tunes the survey.
type Params struct {
	// MinVoltagePoints is the smallest number of distinct voltages a
	// (beam energy, angle) cell needs before its sweep is worth reporting.
	MinVoltagePoints int `json:"min_voltage_points" yaml:"min_voltage_points"`

	Geometry impact.Geometry `json:"geometry" yaml:"geometry"`
}

// DefaultParams returns the survey defaults: three voltage points resolve a
// trend, detector per DefaultGeometry.
func DefaultParams() Params {
	return Params{MinVoltagePoints: 3, Geometry: impact.DefaultGeometry()}
}

// Point is one exposure's resolution estimate within a sweep.
type Point struct {
	Filename   string  `json:"filename"`
	ESAVoltage float64 `json:"esa_voltage"`

	// Linear extent of the spot as a percentage of the detector width.
	// The spot size bounds how finely arrival angle maps to position.
	AngularResolution float64 `json:"angular_resolution_pct"`

	// Signal-to-noise of the spot, the spatial quality proxy.
	SpatialResolution float64 `json:"spatial_resolution"`

	KFactor   float64 `json:"k_factor"`
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`
}

// Series is the voltage sweep of one (beam energy, rotation angle) cell.
// Angle is nil for exposures taken with the rotation platform parked, which
// form their own cell per energy.
type Series struct {
	BeamEnergy float64   `json:"beam_energy"`
	Angle      *float64  `json:"angle,omitempty"`
	Voltages   []float64 `json:"voltages"`
	Points     []Point   `json:"points"`
}

// Analyzer builds resolution series from detected impact regions.
type Analyzer struct {
	params Params
	log    *zap.Logger
}

// NewAnalyzer returns an analyzer with the given parameters. A nil logger
// disables logging.
func NewAnalyzer(params Params, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{params: params, log: log}
}

// Survey groups the regions by beam energy and rotation angle and reports
// the cells where enough distinct voltages were swept. Regions without both
// a nonzero energy and a nonzero voltage cannot place themselves in a sweep
// and are skipped. Series come back ordered by energy, then angle.
func (a *Analyzer) Survey(regions []impact.Region) []Series {
	type cell struct {
		energy   float64
		angle    float64
		hasAngle bool
	}

	buckets := make(map[cell][]impact.Region)
	var order []cell
	for _, r := range regions {
		if r.BeamEnergy == 0 || r.ESAVoltage == 0 {
			continue
		}
		c := cell{energy: r.BeamEnergy}
		if r.RotationAngle != nil {
			c.angle = *r.RotationAngle
			c.hasAngle = true
		}
		if _, seen := buckets[c]; !seen {
			order = append(order, c)
		}
		buckets[c] = append(buckets[c], r)
	}

	var series []Series
	for _, c := range order {
		rs := buckets[c]
		voltages := distinctVoltages(rs)
		if len(voltages) < a.params.MinVoltagePoints {
			a.log.Debug("sweep too short",
				zap.Float64("beam_energy", c.energy),
				zap.Int("voltages", len(voltages)))
			continue
		}

		s := Series{BeamEnergy: c.energy, Voltages: voltages}
		if c.hasAngle {
			angle := c.angle
			s.Angle = &angle
		}
		for _, r := range rs {
			s.Points = append(s.Points, a.point(r))
		}
		sort.Slice(s.Points, func(i, j int) bool {
			if s.Points[i].ESAVoltage != s.Points[j].ESAVoltage {
				return s.Points[i].ESAVoltage < s.Points[j].ESAVoltage
			}
			return s.Points[i].Filename < s.Points[j].Filename
		})
		series = append(series, s)
	}

	sort.Slice(series, func(i, j int) bool {
		if series[i].BeamEnergy != series[j].BeamEnergy {
			return series[i].BeamEnergy < series[j].BeamEnergy
		}
		ai, aj := series[i].Angle, series[j].Angle
		switch {
		case ai == nil:
			return aj != nil
		case aj == nil:
			return false
		default:
			return *ai < *aj
		}
	})

	a.log.Info("resolution survey", zap.Int("series", len(series)))
	return series
}

// point converts one region to its resolution figures. The square-root of
// the area approximates the spot's linear extent.
func (a *Analyzer) point(r impact.Region) Point {
	width := float64(a.params.Geometry.Width)
	return Point{
		Filename:          r.Filename,
		ESAVoltage:        r.ESAVoltage,
		AngularResolution: math.Sqrt(float64(r.Area)) / width * 100,
		SpatialResolution: r.SignalToNoise,
		KFactor:           r.BeamEnergy / math.Abs(r.ESAVoltage),
		CentroidX:         r.CentroidX,
		CentroidY:         r.CentroidY,
	}
}

func distinctVoltages(rs []impact.Region) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, r := range rs {
		if _, dup := seen[r.ESAVoltage]; dup {
			continue
		}
		seen[r.ESAVoltage] = struct{}{}
		out = append(out, r.ESAVoltage)
	}
	sort.Float64s(out)
	return out
}
