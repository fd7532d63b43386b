package impact

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/guygrubbs/phd-fits/internal/filename"
	"github.com/guygrubbs/phd-fits/internal/frame"
	"github.com/guygrubbs/phd-fits/pkg/geometry"
)

// snrEpsilon keeps the signal-to-noise ratio finite when the off-region
// pixels have zero variance.
const snrEpsilon = 1e-10

// Detector finds impact regions on detector exposures.
type Detector struct {
	params Params
	log    *zap.Logger
}

// NewDetector returns a detector with the given parameters. A nil logger
// disables logging.
func NewDetector(params Params, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{params: params, log: log}
}

// Detect locates the impact region on one exposure. The second return is
// false when the frame carries no usable signal: an all-zero frame or a
// signal set smaller than the configured floor. Absence is an expected
// outcome for dark frames, not a failure.
//
// The frame is normalized by its own peak so faint exposures stay
// comparable; thresholds never mix counts across files.
func (d *Detector) Detect(name string, f *frame.Frame, params filename.Parameters) (*Region, bool) {
	if f == nil || f.Size() == 0 {
		d.log.Warn("no frame data", zap.String("file", name))
		return nil, false
	}

	peakCount := f.Max()
	if peakCount <= 0 {
		d.log.Warn("empty frame", zap.String("file", name))
		return nil, false
	}

	// Peak of the normalized frame is 1 by construction; the threshold is a
	// fraction of it. Strictly above: pixels at the threshold are noise.
	peak := 1.0
	threshold := peak * d.params.NoiseRatio

	var (
		points  []geometry.PointInt
		weights []float64
		noise   []float64
	)
	for y, row := range f.Pixels {
		for x, v := range row {
			n := v / peakCount
			if n > threshold {
				points = append(points, geometry.PointInt{X: x, Y: y})
				weights = append(weights, n)
			} else {
				noise = append(noise, n)
			}
		}
	}

	if len(points) < d.params.MinRegionSize {
		d.log.Warn("insufficient signal",
			zap.String("file", name),
			zap.Int("pixels", len(points)),
			zap.Int("floor", d.params.MinRegionSize))
		return nil, false
	}

	centroid := geometry.WeightedCentroid(points, weights)
	bounds := geometry.BoundsOf(points)

	var noiseStd float64
	if len(noise) > 0 {
		noiseStd = stat.PopStdDev(noise, nil)
	}
	snr := stat.Mean(weights, nil) / (noiseStd + snrEpsilon)

	r := &Region{
		Filename:           name,
		RotationAngle:      params.InnerAngle,
		RotationAngleRange: params.InnerAngleRange,
		IsAngleRange:       params.IsAngleRange,
		CentroidX:          centroid.X,
		CentroidY:          centroid.Y,
		PeakIntensity:      peak,
		TotalIntensity:     floats.Sum(weights),
		Area:               len(points),
		MinX:               bounds.X,
		MaxX:               bounds.X + bounds.Width - 1,
		MinY:               bounds.Y,
		MaxY:               bounds.Y + bounds.Height - 1,
		SignalToNoise:      snr,
		DataDensity:        float64(len(points)) / float64(f.Size()),
	}
	if params.BeamEnergy != nil {
		r.BeamEnergy = *params.BeamEnergy
	}
	if params.ESAVoltage != nil {
		r.ESAVoltage = *params.ESAVoltage
	}
	return r, true
}

// DetectAll runs detection over a set of exposures, skipping the ones with
// no usable signal.
func (d *Detector) DetectAll(inputs []Input) []Region {
	var regions []Region
	for _, in := range inputs {
		if r, ok := d.Detect(in.Name, in.Frame, in.Params); ok {
			regions = append(regions, *r)
		}
	}
	return regions
}
