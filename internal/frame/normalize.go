package frame

import (
	"fmt"
	"math"
	"sort"
)

// NormalizationMode selects how raw counts are rescaled for display and
// cross-file comparison.
type NormalizationMode string

const (
	// ModePercentile clips to a percentile window, then scales to 0-1.
	ModePercentile NormalizationMode = "percentile"
	// ModeMinMax scales the full value range to 0-1.
	ModeMinMax NormalizationMode = "minmax"
	// ModeGlobal divides by the frame maximum, preserving relative scale.
	ModeGlobal NormalizationMode = "global"
	// ModeNone leaves values untouched.
	ModeNone NormalizationMode = "none"
)

// KnownModes lists the accepted normalization mode names.
func KnownModes() []NormalizationMode {
	return []NormalizationMode{ModePercentile, ModeMinMax, ModeGlobal, ModeNone}
}

// Normalize returns a rescaled copy of the frame. The percentile mode uses
// pLow/pHigh (0-100) as the contrast window; the other modes ignore them.
func Normalize(f *Frame, mode NormalizationMode, pLow, pHigh float64) (*Frame, error) {
	switch mode {
	case ModeNone:
		return f.Clone(), nil
	case ModeGlobal:
		max := f.Max()
		if max <= 0 {
			return f.Clone(), nil
		}
		return scale(f, 0, max), nil
	case ModeMinMax:
		s := f.Summarize()
		if s.Max <= s.Min {
			return f.Clone(), nil
		}
		return scale(f, s.Min, s.Max), nil
	case ModePercentile:
		if pLow < 0 || pHigh > 100 || pLow >= pHigh {
			return nil, fmt.Errorf("percentile window %.1f-%.1f out of range", pLow, pHigh)
		}
		lo, hi := percentiles(f, pLow, pHigh)
		if hi <= lo {
			return f.Clone(), nil
		}
		out := scale(f, lo, hi)
		clamp01(out)
		return out, nil
	default:
		return nil, fmt.Errorf("unknown normalization mode %q", mode)
	}
}

// scale maps [lo, hi] to [0, 1] without clamping.
func scale(f *Frame, lo, hi float64) *Frame {
	out := f.Clone()
	span := hi - lo
	for _, row := range out.Pixels {
		for x, v := range row {
			row[x] = (v - lo) / span
		}
	}
	return out
}

func clamp01(f *Frame) {
	for _, row := range f.Pixels {
		for x, v := range row {
			if v < 0 {
				row[x] = 0
			} else if v > 1 {
				row[x] = 1
			}
		}
	}
}

// percentiles returns the pLow and pHigh percentile values of the frame.
func percentiles(f *Frame, pLow, pHigh float64) (float64, float64) {
	flat := make([]float64, 0, f.Size())
	for _, row := range f.Pixels {
		flat = append(flat, row...)
	}
	if len(flat) == 0 {
		return 0, 0
	}
	sort.Float64s(flat)
	return quantile(flat, pLow/100), quantile(flat, pHigh/100)
}

// quantile interpolates linearly between the order statistics at position
// p*(n-1). The bench's established contrast windows use this rule, which
// differs from interpolating the empirical CDF.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
