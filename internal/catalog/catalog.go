// Package catalog discovers bench output files, parses their filenames into
// parameter records, and finds comparable sets: groups of exposures sharing
// fixed parameters while one parameter varies.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/guygrubbs/phd-fits/internal/filename"
)

// absentKey marks a missing parameter inside composite grouping keys.
// Absence is a distinct key component, not an exclusion.
const absentKey = "None"

// DataFile is one discovered bench output file. Problems hit while
// examining the file are recorded on the entity instead of aborting the
// scan.
type DataFile struct {
	Path   string              `json:"filepath"`
	Size   int64               `json:"file_size"`
	Kind   filename.Kind       `json:"file_type"`
	Params filename.Parameters `json:"parameters"`
	Errors []string            `json:"errors,omitempty"`
}

// Base returns the filename without its directory.
func (f DataFile) Base() string { return filepath.Base(f.Path) }

// IsImage reports whether the file carries a 2D detector frame.
func (f DataFile) IsImage() bool {
	return f.Kind == filename.KindFITS || f.Kind == filename.KindMap
}

// IsPHD reports whether the file carries a pulse-height histogram.
func (f DataFile) IsPHD() bool { return f.Kind == filename.KindPHD }

// HasErrors reports whether discovery recorded any problem for the file.
func (f DataFile) HasErrors() bool { return len(f.Errors) > 0 }

// Group is a named collection of files sharing the Common parameter values.
// Varying lists the parameter names declared to differ within the group.
// Groups are read-only once a grouping operation returns them.
type Group struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Files       []DataFile        `json:"files"`
	Common      map[string]string `json:"common_parameters"`
	Varying     []string          `json:"varying_parameters,omitempty"`
}

// FilesWithValue returns the group's files whose named parameter equals the
// given string form.
func (g *Group) FilesWithValue(param, value string) []DataFile {
	var out []DataFile
	for _, f := range g.Files {
		if v, ok := f.Params.Value(param); ok && v == value {
			out = append(out, f)
		}
	}
	return out
}

// ParameterValues returns the distinct values of one parameter across the
// group, sorted numerically when every value parses as a number.
func (g *Group) ParameterValues(param string) []string {
	seen := make(map[string]struct{})
	var vals []string
	for _, f := range g.Files {
		v, ok := f.Params.Value(param)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		vals = append(vals, v)
	}
	sortValues(vals)
	return vals
}

// Catalog holds the discovered files of one data directory and the grouping
// operations over them.
type Catalog struct {
	dir   string
	log   *zap.Logger
	files []DataFile
}

// New returns a catalog for the given directory. A nil logger disables
// logging.
func New(dir string, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{dir: dir, log: log}
}

// FromFiles returns a catalog over an already-discovered file list.
func FromFiles(files []DataFile, log *zap.Logger) *Catalog {
	c := New("", log)
	c.files = files
	return c
}

// Files returns the discovered entities in scan order.
func (c *Catalog) Files() []DataFile { return c.files }

// Dir returns the directory the catalog scans.
func (c *Catalog) Dir() string { return c.dir }

// Discover scans the data directory and parses every file with a known
// extension. Parsing is independent per file, so it fans out across a
// bounded worker group; each worker writes only its own slot, and the
// merged list keeps directory order. Per-file problems are recorded on the
// entity.
func (c *Catalog) Discover(ctx context.Context) ([]DataFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filename.Parse(e.Name()).Kind == filename.KindUnknown {
			continue
		}
		names = append(names, e.Name())
	}

	files := make([]DataFile, len(names))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, name := range names {
		eg.Go(func() error {
			path := filepath.Join(c.dir, name)
			df := DataFile{Path: path, Params: filename.Parse(path)}
			df.Kind = df.Params.Kind
			if info, err := os.Stat(path); err != nil {
				df.Errors = append(df.Errors, fmt.Sprintf("stat: %v", err))
			} else {
				df.Size = info.Size()
			}
			files[i] = df
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	c.files = files
	c.log.Info("discovered data files",
		zap.String("dir", c.dir),
		zap.Int("count", len(files)))
	return files, nil
}

// GroupByParameter partitions the files by the string form of one
// parameter. Files without the parameter are excluded; groups smaller than
// minGroupSize are discarded. Groups come back in first-seen order.
func (c *Catalog) GroupByParameter(param string, minGroupSize int) []Group {
	groups := make(map[string]*Group)
	var order []string

	for _, f := range c.files {
		v, ok := f.Params.Value(param)
		if !ok {
			continue
		}
		g, exists := groups[v]
		if !exists {
			g = &Group{
				Name:        param + "_" + v,
				Description: fmt.Sprintf("Files with %s = %s", param, v),
				Common:      map[string]string{param: v},
			}
			groups[v] = g
			order = append(order, v)
		}
		g.Files = append(g.Files, f)
	}

	return collect(groups, order, minGroupSize)
}

// GroupByParameters partitions the files by a composite key over several
// parameters. A missing parameter contributes a distinct "None" component
// rather than excluding the file.
func (c *Catalog) GroupByParameters(params []string, minGroupSize int) []Group {
	groups := make(map[string]*Group)
	var order []string

	for _, f := range c.files {
		if len(params) == 0 {
			break
		}

		parts := make([]string, 0, len(params))
		common := make(map[string]string, len(params))
		for _, param := range params {
			v, ok := f.Params.Value(param)
			if !ok {
				v = absentKey
			}
			parts = append(parts, param+"_"+v)
			common[param] = v
		}
		key := strings.Join(parts, "_")

		g, exists := groups[key]
		if !exists {
			desc := make([]string, 0, len(params))
			for _, param := range params {
				desc = append(desc, param+"="+common[param])
			}
			g = &Group{
				Name:        key,
				Description: "Files with " + strings.Join(desc, ", "),
				Common:      common,
			}
			groups[key] = g
			order = append(order, key)
		}
		g.Files = append(g.Files, f)
	}

	return collect(groups, order, minGroupSize)
}

// FindComparisonSets finds controlled-experiment structure: groups whose
// fixed parameters match while the varying parameter takes at least two
// distinct values.
func (c *Catalog) FindComparisonSets(fixed []string, varying string) []Group {
	var out []Group
	for _, g := range c.GroupByParameters(fixed, 2) {
		if len(g.ParameterValues(varying)) < 2 {
			continue
		}
		g.Varying = []string{varying}
		g.Description += ", varying " + varying
		out = append(out, g)
	}
	return out
}

// Summary condenses the catalog: counts per kind and test type plus the
// sorted distinct parameter values seen.
type Summary struct {
	TotalFiles   int            `json:"total_files"`
	ByKind       map[string]int `json:"by_type"`
	ByTestType   map[string]int `json:"by_test_type"`
	BeamEnergies []float64      `json:"beam_energies"`
	ESAVoltages  []float64      `json:"esa_voltages"`
	Timestamps   []time.Time    `json:"timestamps"`
	FileSizes    []int64        `json:"file_sizes,omitempty"`
}

// Summarize builds the catalog summary.
func (c *Catalog) Summarize() Summary {
	s := Summary{
		TotalFiles: len(c.files),
		ByKind:     make(map[string]int),
		ByTestType: make(map[string]int),
	}

	energies := make(map[float64]struct{})
	voltages := make(map[float64]struct{})
	for _, f := range c.files {
		s.ByKind[string(f.Kind)]++
		s.ByTestType[string(f.Params.TestType)]++

		if v := f.Params.BeamEnergy; v != nil && *v != 0 {
			energies[*v] = struct{}{}
		}
		if v := f.Params.ESAVoltage; v != nil && *v != 0 {
			voltages[*v] = struct{}{}
		}
		if t := f.Params.Timestamp; t != nil {
			s.Timestamps = append(s.Timestamps, *t)
		}
		if f.Size > 0 {
			s.FileSizes = append(s.FileSizes, f.Size)
		}
	}

	s.BeamEnergies = sortedKeys(energies)
	s.ESAVoltages = sortedKeys(voltages)
	sort.Slice(s.Timestamps, func(i, j int) bool { return s.Timestamps[i].Before(s.Timestamps[j]) })

	return s
}

func collect(groups map[string]*Group, order []string, minGroupSize int) []Group {
	var out []Group
	for _, key := range order {
		if g := groups[key]; len(g.Files) >= minGroupSize {
			out = append(out, *g)
		}
	}
	return out
}

// sortValues orders values numerically when every entry parses as a float,
// lexically otherwise.
func sortValues(vals []string) {
	for _, v := range vals {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			sort.Strings(vals)
			return
		}
	}
	sort.Slice(vals, func(i, j int) bool {
		a, _ := strconv.ParseFloat(vals[i], 64)
		b, _ := strconv.ParseFloat(vals[j], 64)
		return a < b
	})
}

func sortedKeys(set map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
