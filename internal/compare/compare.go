// Package compare runs the standard comparison suites over a catalog: for
// each preset it locates comparison sets, reduces every member file to a
// metric row, and aggregates the rows into summary statistics and
// metric-versus-parameter correlations.
package compare

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/guygrubbs/phd-fits/internal/catalog"
	"github.com/guygrubbs/phd-fits/internal/filename"
	"github.com/guygrubbs/phd-fits/internal/frame"
	"github.com/guygrubbs/phd-fits/internal/phd"
)

// minCompared is the smallest number of loadable files a comparison needs.
const minCompared = 2

// minCorrelationPoints is the smallest sample Pearson r is reported for.
const minCorrelationPoints = 3

// Data source of an outcome's metrics.
const (
	DataPHD    = "phd"
	DataFrames = "frames"
)

// Preset names a recurring bench comparison: which parameters must match
// across the set and which one sweeps.
type Preset struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Fixed       []string `json:"fixed_parameters"`
	Varying     string   `json:"varying_parameter"`
}

// Presets returns the standard comparison suites in evaluation order.
func Presets() []Preset {
	return []Preset{
		{
			Name:        "beam_energy_sweep",
			Description: "Beam energy sweep at fixed ESA voltage and angle",
			Fixed:       []string{filename.ParamESAVoltage, filename.ParamInnerAngle},
			Varying:     filename.ParamBeamEnergy,
		},
		{
			Name:        "voltage_sweep",
			Description: "ESA voltage sweep at fixed beam energy and angle",
			Fixed:       []string{filename.ParamBeamEnergy, filename.ParamInnerAngle},
			Varying:     filename.ParamESAVoltage,
		},
		{
			Name:        "angle_sweep",
			Description: "Rotation angle sweep at fixed beam energy and ESA voltage",
			Fixed:       []string{filename.ParamBeamEnergy, filename.ParamESAVoltage},
			Varying:     filename.ParamInnerAngle,
		},
		{
			Name:        "temporal_analysis",
			Description: "Repeated measurements over time at fixed parameters",
			Fixed:       []string{filename.ParamBeamEnergy, filename.ParamESAVoltage, filename.ParamInnerAngle},
			Varying:     filename.ParamTimestamp,
		},
	}
}

// Opportunity pairs a preset with the comparison sets the catalog holds
// for it.
type Opportunity struct {
	Preset Preset          `json:"preset"`
	Groups []catalog.Group `json:"groups"`
}

// Row is one file's metrics within a comparison. Param carries the varying
// parameter as a number when its string form parses; timestamps and other
// non-numeric values leave it nil.
type Row struct {
	File    string             `json:"file"`
	Label   string             `json:"label"`
	Param   *float64           `json:"param,omitempty"`
	Metrics map[string]float64 `json:"metrics"`
}

// Aggregate summarizes one metric across a comparison's rows.
type Aggregate struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Outcome is one comparison run over one comparison set. Correlations maps
// metric names to the Pearson correlation against the varying parameter and
// stays nil when the parameter never parses as a number or too few rows
// carry it.
type Outcome struct {
	Preset      string            `json:"preset"`
	Data        string            `json:"data"`
	Group       string            `json:"group"`
	Description string            `json:"description"`
	Fixed       map[string]string `json:"fixed_parameters"`
	Varying     string            `json:"varying_parameter"`
	Values      []string          `json:"varying_values"`

	Rows         []Row                `json:"rows"`
	Summary      map[string]Aggregate `json:"summary"`
	Correlations map[string]float64   `json:"correlations,omitempty"`
	Errors       []string             `json:"errors,omitempty"`
}

// Analyzer loads each comparison set's data and reduces it to comparable
// metrics.
type Analyzer struct {
	frames frame.Loader
	phds   phd.Loader
	log    *zap.Logger
}

// NewAnalyzer returns an analyzer over the given loaders. A nil logger
// disables logging.
func NewAnalyzer(frames frame.Loader, phds phd.Loader, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{frames: frames, phds: phds, log: log}
}

// Opportunities finds the comparison sets available for every preset.
// Presets without any set are omitted.
func (a *Analyzer) Opportunities(c *catalog.Catalog) []Opportunity {
	var out []Opportunity
	for _, p := range Presets() {
		groups := c.FindComparisonSets(p.Fixed, p.Varying)
		if len(groups) == 0 {
			continue
		}
		a.log.Info("comparison opportunity",
			zap.String("preset", p.Name),
			zap.Int("sets", len(groups)))
		out = append(out, Opportunity{Preset: p, Groups: groups})
	}
	return out
}

// Run performs every available comparison: each preset's sets are compared
// on their spectra and on their frames. Sets where fewer than two files of
// a kind load simply contribute no outcome of that kind.
func (a *Analyzer) Run(c *catalog.Catalog) []Outcome {
	var results []Outcome
	for _, opp := range a.Opportunities(c) {
		for _, g := range opp.Groups {
			if out, ok := a.ComparePHD(opp.Preset, g); ok {
				results = append(results, *out)
			}
			if out, ok := a.CompareFrames(opp.Preset, g); ok {
				results = append(results, *out)
			}
		}
	}
	return results
}

// ComparePHD compares the pulse-height spectra within one comparison set.
// The second return is false when fewer than two histograms load; load
// failures are recorded on the outcome and do not abort the rest.
func (a *Analyzer) ComparePHD(preset Preset, g catalog.Group) (*Outcome, bool) {
	out := a.newOutcome(preset, g, DataPHD)
	for _, f := range g.Files {
		if !f.IsPHD() {
			continue
		}
		h, err := a.phds.Load(f.Path)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", f.Base(), err))
			a.log.Warn("phd load failed", zap.String("file", f.Base()), zap.Error(err))
			continue
		}
		s := h.Summarize()
		out.Rows = append(out.Rows, Row{
			File:  f.Base(),
			Label: label(f, preset.Varying),
			Param: numericValue(f, preset.Varying),
			Metrics: map[string]float64{
				"peak_position": s.PeakBin,
				"peak_height":   s.PeakHeight,
				"total_counts":  s.Total,
				"mean_adc":      s.MeanADC,
				"std_adc":       s.StdADC,
			},
		})
	}
	return a.finish(out)
}

// CompareFrames compares the detector frames within one comparison set.
// The second return is false when fewer than two frames load.
func (a *Analyzer) CompareFrames(preset Preset, g catalog.Group) (*Outcome, bool) {
	out := a.newOutcome(preset, g, DataFrames)
	for _, f := range g.Files {
		if !f.IsImage() {
			continue
		}
		fr, err := a.frames.Load(f.Path)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", f.Base(), err))
			a.log.Warn("frame load failed", zap.String("file", f.Base()), zap.Error(err))
			continue
		}
		s := fr.Summarize()
		out.Rows = append(out.Rows, Row{
			File:  f.Base(),
			Label: label(f, preset.Varying),
			Param: numericValue(f, preset.Varying),
			Metrics: map[string]float64{
				"min_value":       s.Min,
				"max_value":       s.Max,
				"mean_value":      s.Mean,
				"std_value":       s.Std,
				"non_zero_pixels": float64(s.NonZero),
			},
		})
	}
	return a.finish(out)
}

func (a *Analyzer) newOutcome(preset Preset, g catalog.Group, data string) *Outcome {
	return &Outcome{
		Preset:      preset.Name,
		Data:        data,
		Group:       g.Name,
		Description: g.Description,
		Fixed:       g.Common,
		Varying:     preset.Varying,
		Values:      g.ParameterValues(preset.Varying),
	}
}

// finish aggregates the rows. Comparisons with fewer than two rows carry no
// information and are dropped.
func (a *Analyzer) finish(out *Outcome) (*Outcome, bool) {
	if len(out.Rows) < minCompared {
		return nil, false
	}
	out.Summary = summarize(out.Rows)
	out.Correlations = correlate(out.Rows)
	a.log.Info("comparison complete",
		zap.String("preset", out.Preset),
		zap.String("data", out.Data),
		zap.String("group", out.Group),
		zap.Int("rows", len(out.Rows)))
	return out, true
}

// label names a row after its varying parameter value. Timestamps read as
// wall clock times; files without the parameter fall back to their stem.
func label(f catalog.DataFile, varying string) string {
	if varying == filename.ParamTimestamp && f.Params.Timestamp != nil {
		return f.Params.Timestamp.Format("2006-01-02 15:04")
	}
	if v, ok := f.Params.Value(varying); ok {
		return varying + "=" + v
	}
	base := f.Base()
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// numericValue returns the varying parameter as a float when its string
// form parses, nil otherwise.
func numericValue(f catalog.DataFile, varying string) *float64 {
	v, ok := f.Params.Value(varying)
	if !ok {
		return nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &x
}

// summarize aggregates each metric over the rows. Sample standard
// deviation: the rows are a sample of the sweep, not its full population.
func summarize(rows []Row) map[string]Aggregate {
	agg := make(map[string]Aggregate, len(rows[0].Metrics))
	for _, name := range metricNames(rows) {
		var xs []float64
		for _, r := range rows {
			if v, ok := r.Metrics[name]; ok {
				xs = append(xs, v)
			}
		}
		agg[name] = Aggregate{
			Mean: stat.Mean(xs, nil),
			Std:  stat.StdDev(xs, nil),
			Min:  floats.Min(xs),
			Max:  floats.Max(xs),
		}
	}
	return agg
}

// correlate computes the Pearson correlation of each metric against the
// varying parameter over the rows carrying both. Fewer pairs than
// minCorrelationPoints, or a degenerate spread, yields no entry.
func correlate(rows []Row) map[string]float64 {
	out := make(map[string]float64)
	for _, name := range metricNames(rows) {
		var xs, ys []float64
		for _, r := range rows {
			if r.Param == nil {
				continue
			}
			v, ok := r.Metrics[name]
			if !ok {
				continue
			}
			xs = append(xs, *r.Param)
			ys = append(ys, v)
		}
		if len(xs) < minCorrelationPoints {
			continue
		}
		r := stat.Correlation(xs, ys, nil)
		if math.IsNaN(r) {
			continue
		}
		out[name] = r
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func metricNames(rows []Row) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range rows {
		for name := range r.Metrics {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
