// Package kfactor estimates the analyzer constant of the ESA: the ratio of
// beam energy to deflection voltage that steers a particle onto the
// detector center. Each impact region with both quantities yields one
// measurement; the estimate aggregates them.
package kfactor

import (
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/guygrubbs/phd-fits/internal/impact"
)

// ErrNoMeasurements reports that no region carried both a nonzero beam
// energy and a nonzero deflection voltage.
var ErrNoMeasurements = errors.New("no region with nonzero beam energy and esa voltage")

// Measurement pairs one impact region with its deflection figures.
type Measurement struct {
	Region impact.Region `json:"region"`

	// Voltage over energy: a simplified small-angle model kept for
	// reference against the measured offset.
	TheoreticalDeflection float64 `json:"theoretical_deflection"`

	// Centroid offset from detector center as a fraction of the half
	// width.
	MeasuredDeflection float64 `json:"measured_deflection"`

	KFactor float64 `json:"k_factor"`
}

// Result aggregates the k-factors of all usable measurements.
type Result struct {
	Mean   float64 `json:"k_factor_mean"`
	Std    float64 `json:"k_factor_std"`
	Median float64 `json:"k_factor_median"`
	Min    float64 `json:"k_factor_min"`
	Max    float64 `json:"k_factor_max"`
	N      int     `json:"num_measurements"`

	KFactors     []float64     `json:"k_factors"`
	Measurements []Measurement `json:"measurements"`
}

// Estimator derives k-factor statistics from impact regions.
type Estimator struct {
	geom impact.Geometry
	log  *zap.Logger
}

// NewEstimator returns an estimator for the given detector geometry. A nil
// logger disables logging.
func NewEstimator(geom impact.Geometry, log *zap.Logger) *Estimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Estimator{geom: geom, log: log}
}

// Estimate builds a measurement per region holding both a nonzero energy
// and a nonzero voltage and aggregates their k-factors. Regions missing
// either quantity are skipped without affecting the aggregate; when every
// region is skipped the estimate is ErrNoMeasurements rather than NaN
// statistics.
func (e *Estimator) Estimate(regions []impact.Region) (*Result, error) {
	var measurements []Measurement
	for _, r := range regions {
		if r.ESAVoltage == 0 || r.BeamEnergy == 0 {
			continue
		}

		m := Measurement{
			Region:                r,
			TheoreticalDeflection: theoreticalDeflection(r.BeamEnergy, r.ESAVoltage),
			MeasuredDeflection:    (r.CentroidX - e.geom.CenterX) / e.geom.CenterX,
			KFactor:               r.BeamEnergy / math.Abs(r.ESAVoltage),
		}
		measurements = append(measurements, m)

		if r.IsAngleRange && r.RotationAngleRange != nil {
			e.log.Info("exposure collected over an angle sweep",
				zap.String("file", r.Filename),
				zap.Float64("angle_min", r.RotationAngleRange.Min),
				zap.Float64("angle_max", r.RotationAngleRange.Max))
		}
	}

	if len(measurements) == 0 {
		return nil, ErrNoMeasurements
	}

	ks := make([]float64, len(measurements))
	for i, m := range measurements {
		ks[i] = m.KFactor
	}

	return &Result{
		Mean:         stat.Mean(ks, nil),
		Std:          stat.PopStdDev(ks, nil),
		Median:       median(ks),
		Min:          floats.Min(ks),
		Max:          floats.Max(ks),
		N:            len(ks),
		KFactors:     ks,
		Measurements: measurements,
	}, nil
}

// median of a non-empty slice; the input is not reordered.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// theoreticalDeflection is a simplified reference model, not a rigorous
// treatment of the analyzer optics.
func theoreticalDeflection(energy, voltage float64) float64 {
	if energy > 0 {
		return voltage / energy
	}
	return 0
}
