// Package phd loads and summarizes pulse-height distribution histograms,
// the two-column ADC spectra the bench writes alongside detector exposures.
package phd

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Histogram is one pulse-height distribution: counts per ADC bin. Bins and
// Counts are parallel slices of equal length.
type Histogram struct {
	Bins   []float64 `json:"adc_bins"`
	Counts []float64 `json:"counts"`
}

// Len returns the number of bins.
func (h *Histogram) Len() int { return len(h.Bins) }

// Stats summarizes one histogram. MeanADC and StdADC are count-weighted
// moments over the bin positions; both are zero when the histogram holds no
// counts.
type Stats struct {
	PeakBin    float64 `json:"peak_position"`
	PeakHeight float64 `json:"peak_height"`
	Total      float64 `json:"total_counts"`
	MeanADC    float64 `json:"mean_adc"`
	StdADC     float64 `json:"std_adc"`
}

// Summarize computes peak location and weighted moments. Ties on the peak
// resolve to the lowest bin.
func (h *Histogram) Summarize() Stats {
	if h.Len() == 0 {
		return Stats{}
	}

	s := Stats{Total: floats.Sum(h.Counts)}

	peak := floats.MaxIdx(h.Counts)
	s.PeakBin = h.Bins[peak]
	s.PeakHeight = h.Counts[peak]

	if s.Total <= 0 {
		return s
	}

	for i, b := range h.Bins {
		s.MeanADC += b * h.Counts[i]
	}
	s.MeanADC /= s.Total

	// Population variance: the counts are the full observed spectrum, not a
	// sample drawn from it.
	var variance float64
	for i, b := range h.Bins {
		d := b - s.MeanADC
		variance += h.Counts[i] * d * d
	}
	s.StdADC = math.Sqrt(variance / s.Total)

	return s
}

// Clip returns the portion of the histogram whose bins fall inside the
// inclusive ADC window [lo, hi]. The low channels carry electronic noise and
// the top channels saturate, so analysis usually runs on a clipped window.
func (h *Histogram) Clip(lo, hi float64) *Histogram {
	out := &Histogram{}
	for i, b := range h.Bins {
		if b < lo || b > hi {
			continue
		}
		out.Bins = append(out.Bins, b)
		out.Counts = append(out.Counts, h.Counts[i])
	}
	return out
}

// Loader produces histograms from files on disk. Test fakes and alternate
// acquisition formats implement the same contract.
type Loader interface {
	Load(path string) (*Histogram, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (*Histogram, error)

// Load calls fn(path).
func (fn LoaderFunc) Load(path string) (*Histogram, error) {
	return fn(path)
}

// Load reads a histogram from a delimited text file: one row per bin, first
// column the ADC bin, second the count. Extra columns are ignored, blank
// lines and '#' comments are skipped.
func Load(path string) (*Histogram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open phd: %w", err)
	}
	defer f.Close()

	h := &Histogram{}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: need at least 2 columns, got %d", path, line, len(fields))
		}

		bin, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad bin value %q: %w", path, line, fields[0], err)
		}
		count, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad count value %q: %w", path, line, fields[1], err)
		}

		h.Bins = append(h.Bins, bin)
		h.Counts = append(h.Counts, count)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if h.Len() == 0 {
		return nil, fmt.Errorf("%s: no histogram rows", path)
	}

	return h, nil
}
