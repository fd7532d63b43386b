package filename

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// grammar pairs a naming-scheme name with the pattern that recognizes it.
type grammar struct {
	name string
	re   *regexp.Regexp
}

// grammars lists every naming scheme the bench has used, most specific
// first. Order is load-bearing: the loose energy-only scheme would match a
// substring of a fully-annotated name, so the detailed schemes must win.
var grammars = []grammar{
	{"detailed", regexp.MustCompile(
		`ACI_ESA-Inner-(?P<inner_angle>-?\d+(?:to-?\d+)?)-Hor(?P<hor_value>\d+)_` +
			`Beam-(?P<beam_energy>\d+(?:\.\d+)?(?:k)?eV)_` +
			`Focus-X-(?P<focus_x>[\w\-\.]+)-Y-(?P<focus_y>[\w\-\.]+)_` +
			`Offset-X-(?P<offset_x>[\w\-\.]+)_Y-(?P<offset_y>[\w\-\.]+)_` +
			`Wave-(?P<wave_type>\w+)_` +
			`ESA-(?P<esa_voltage>-?\d+(?:\.\d+)?)_` +
			`MCP-(?P<mcp_voltage>\d+(?:\.\d+)?)-(?P<mcp_extra>\d+)` +
			`(?P<timestamp>\d{6}-\d{6})?`)},

	{"simple_energy", regexp.MustCompile(
		`ACI\s+ESA\s+(?P<beam_energy>\d+(?:\.\d+)?(?:k)?eV)` +
			`(?P<timestamp>\d{6}-\d{6})?`)},

	{"voltage_energy", regexp.MustCompile(
		`ACI\s+ESA\s+(?P<esa_voltage>\d+)V\s+(?P<beam_energy>\d+(?:\.\d+)?[kK]?[eE]V)\s+BEAM` +
			`(?P<timestamp>\d{6}-\d{6})?`)},

	{"beam_prep", regexp.MustCompile(
		`ACI\s+ESA\s+(?P<beam_energy>\d+(?:\.\d+)?[kK]?[eE]V)\s+BEAM\s+PREP` +
			`(?P<timestamp>\d{6}-\d{6})?`)},

	{"ramp_up", regexp.MustCompile(
		`ACI\s+(?:ESA\s+)?RAMP\s+UP(?:\s+(?P<sequence>\w+\d*))?` +
			`(?:\s+(?P<date>\d{8}))?` +
			`(?:\s+ESA\s+(?P<esa_voltage>\d+)V)?` +
			`(?P<timestamp>\d{6}-\d{6})?`)},

	{"dark", regexp.MustCompile(
		`ACI\s+ESA\s+Dark\s+(?P<date>\d{6})(?:\.fits)?` +
			`(?P<timestamp>\d{6}-\d{6})?`)},

	{"rotating", regexp.MustCompile(
		`ACI_ESA_Rotating(?P<sequence>\d+)?_` +
			`Beam-(?P<beam_energy>\d+(?:\.\d+)?(?:k)?eV)_` +
			`Focus-X-(?P<focus_x>[\w\-\.]+)-Y-(?P<focus_y>[\w\-\.]+)_` +
			`Offset-X-(?P<offset_x>[\w\-\.]+)_Y-(?P<offset_y>[\w\-\.]+)_` +
			`Wave-(?P<wave_type>\w+)_` +
			`ESA-(?P<esa_voltage>-?\d+(?:\.\d+)?)_` +
			`MCP-(?P<mcp_voltage>\d+(?:\.\d+)?)-(?P<mcp_extra>\d+)` +
			`(?P<timestamp>\d{6}-\d{6})?`)},
}

// knownExtensions in strip order, compound forms first ("x.fits.map" style
// names appear in the archive).
var knownExtensions = []string{".fits.map", ".fits.phd", ".fits", ".map", ".phd"}

// Parse extracts experimental parameters from one filename. It is total: a
// name matching no known scheme yields a record with TestType TestUnknown,
// and a malformed token leaves its field absent rather than failing.
func Parse(path string) Parameters {
	base := filepath.Base(path)
	p := Parameters{
		Filename: path,
		BaseName: base,
		Kind:     detectKind(base),
	}

	name := stripExtensions(base)
	for _, g := range grammars {
		groups := findNamed(g.re, name)
		if groups == nil {
			continue
		}
		p.Grammar = g.name
		apply(&p, g.name, groups)
		break
	}

	p.TestType = Classify(p)
	return p
}

// detectKind reports the payload kind from the extension, case-insensitive.
func detectKind(base string) Kind {
	switch {
	case hasSuffixFold(base, ".fits"):
		return KindFITS
	case hasSuffixFold(base, ".map"):
		return KindMap
	case hasSuffixFold(base, ".phd"):
		return KindPHD
	default:
		return KindUnknown
	}
}

// stripExtensions removes one known extension before grammar matching.
func stripExtensions(base string) string {
	for _, ext := range knownExtensions {
		if hasSuffixFold(base, ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// findNamed returns the named capture groups of the first match, or nil
// when the pattern does not match. Unmatched optional groups are omitted.
func findNamed(re *regexp.Regexp, s string) map[string]string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || m[i] == "" {
			continue
		}
		groups[name] = m[i]
	}
	return groups
}

// apply copies captured tokens into the record, converting the typed ones.
// Conversion failures leave the numeric field nil; the raw token is kept
// either way.
func apply(p *Parameters, grammarName string, groups map[string]string) {
	if tok, ok := groups["beam_energy"]; ok {
		p.BeamEnergyRaw = tok
		if v, unit, ok := parseEnergy(tok); ok {
			p.BeamEnergy = &v
			p.BeamEnergyUnit = unit
		}
	}

	if tok, ok := groups["esa_voltage"]; ok {
		p.ESAVoltageRaw = tok
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			p.ESAVoltage = &v
		}
	}

	if tok, ok := groups["mcp_voltage"]; ok {
		p.MCPVoltageRaw = tok
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			p.MCPVoltage = &v
		}
	}

	if tok, ok := groups["inner_angle"]; ok {
		p.InnerAngleRaw = tok
		if v, rng, ok := parseAngle(tok); ok {
			p.InnerAngle = &v
			p.InnerAngleRange = rng
			p.IsAngleRange = rng != nil
		}
	}

	if tok, ok := groups["hor_value"]; ok {
		p.HorizontalRaw = tok
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			p.Horizontal = &v
		}
	}

	p.FocusX = groups["focus_x"]
	p.FocusY = groups["focus_y"]
	p.OffsetX = groups["offset_x"]
	p.OffsetY = groups["offset_y"]
	p.WaveType = groups["wave_type"]
	p.DateRaw = groups["date"]
	p.Sequence = groups["sequence"]

	if tok, ok := groups["timestamp"]; ok {
		p.TimestampRaw = tok
		p.Timestamp = parseTimestamp(tok)
	}

	switch grammarName {
	case "dark":
		p.IsDark = true
	case "ramp_up":
		p.IsRamp = true
	case "rotating":
		p.IsRotating = true
	}
}
