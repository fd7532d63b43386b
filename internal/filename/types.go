// Package filename extracts experimental parameters from the structured
// filenames produced by the ESA test bench. Several naming schemes
// accumulated over the bench's lifetime; parsing tries each known grammar
// in order of specificity and fills a typed record from the first match.
package filename

import (
	"strconv"
	"time"
)

// Kind identifies the payload a bench output file carries.
type Kind string

const (
	// KindFITS is a detector image exposure.
	KindFITS Kind = "fits"
	// KindMap is a legacy accumulated count map.
	KindMap Kind = "map"
	// KindPHD is a pulse-height distribution histogram.
	KindPHD Kind = "phd"
	// KindUnknown marks files with an unrecognized extension.
	KindUnknown Kind = "unknown"
)

// TestType classifies what kind of bench run produced a file.
type TestType string

const (
	TestDark         TestType = "dark"
	TestRampUp       TestType = "ramp_up"
	TestRotating     TestType = "rotating"
	TestVoltageSweep TestType = "voltage_sweep"
	TestEnergyTest   TestType = "energy_test"
	TestUnknown      TestType = "unknown"
)

// AngleRange is a rotation sweep expressed as its travel limits in degrees.
type AngleRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint returns the representative single angle for the sweep.
func (r AngleRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Parameters holds everything recovered from one filename. Records are
// read-only after Parse returns; optional numerics are nil when the name
// does not carry them, raw token fields keep the matched text verbatim.
type Parameters struct {
	Filename string `json:"filename"`
	BaseName string `json:"base_name"`
	Kind     Kind   `json:"file_type"`

	BeamEnergyRaw  string   `json:"beam_energy,omitempty"`
	BeamEnergy     *float64 `json:"beam_energy_value,omitempty"` // normalized to eV
	BeamEnergyUnit string   `json:"beam_energy_unit,omitempty"`

	ESAVoltageRaw string   `json:"esa_voltage,omitempty"`
	ESAVoltage    *float64 `json:"esa_voltage_value,omitempty"`

	MCPVoltageRaw string   `json:"mcp_voltage,omitempty"`
	MCPVoltage    *float64 `json:"mcp_voltage_value,omitempty"`

	InnerAngleRaw   string      `json:"inner_angle,omitempty"`
	InnerAngle      *float64    `json:"inner_angle_value,omitempty"` // midpoint when the token is a range
	InnerAngleRange *AngleRange `json:"inner_angle_range,omitempty"`
	IsAngleRange    bool        `json:"is_angle_range"`

	HorizontalRaw string   `json:"horizontal_value,omitempty"`
	Horizontal    *float64 `json:"horizontal_value_num,omitempty"`

	FocusX  string `json:"focus_x,omitempty"`
	FocusY  string `json:"focus_y,omitempty"`
	OffsetX string `json:"offset_x,omitempty"`
	OffsetY string `json:"offset_y,omitempty"`

	WaveType string `json:"wave_type,omitempty"`

	TimestampRaw string     `json:"timestamp,omitempty"`
	Timestamp    *time.Time `json:"datetime_obj,omitempty"`

	DateRaw  string `json:"date,omitempty"`
	Sequence string `json:"sequence_info,omitempty"`

	IsDark     bool `json:"is_dark"`
	IsRamp     bool `json:"is_ramp"`
	IsRotating bool `json:"is_rotating"`

	// Grammar names the scheme that matched; empty when none did.
	Grammar  string   `json:"grammar,omitempty"`
	TestType TestType `json:"test_type"`
}

// Parameter names accepted by Value and by the catalog grouping operations.
const (
	ParamBeamEnergy = "beam_energy_value"
	ParamESAVoltage = "esa_voltage_value"
	ParamMCPVoltage = "mcp_voltage_value"
	ParamInnerAngle = "inner_angle_value"
	ParamHorizontal = "horizontal_value_num"
	ParamWaveType   = "wave_type"
	ParamTestType   = "test_type"
	ParamFileKind   = "file_type"
	ParamTimestamp  = "datetime_obj"
	ParamFocusX     = "focus_x"
	ParamFocusY     = "focus_y"
	ParamOffsetX    = "offset_x"
	ParamOffsetY    = "offset_y"
	ParamSequence   = "sequence_info"
)

// Value returns the string form of the named parameter and whether the
// record carries it. Grouping keys are built from these strings, so the
// formatting must stay deterministic.
func (p Parameters) Value(name string) (string, bool) {
	switch name {
	case ParamBeamEnergy:
		return floatValue(p.BeamEnergy)
	case ParamESAVoltage:
		return floatValue(p.ESAVoltage)
	case ParamMCPVoltage:
		return floatValue(p.MCPVoltage)
	case ParamInnerAngle:
		return floatValue(p.InnerAngle)
	case ParamHorizontal:
		return floatValue(p.Horizontal)
	case ParamWaveType:
		return p.WaveType, p.WaveType != ""
	case ParamTestType:
		return string(p.TestType), p.TestType != ""
	case ParamFileKind:
		return string(p.Kind), p.Kind != ""
	case ParamTimestamp:
		if p.Timestamp == nil {
			return "", false
		}
		return p.Timestamp.Format("2006-01-02 15:04:05"), true
	case ParamFocusX:
		return p.FocusX, p.FocusX != ""
	case ParamFocusY:
		return p.FocusY, p.FocusY != ""
	case ParamOffsetX:
		return p.OffsetX, p.OffsetX != ""
	case ParamOffsetY:
		return p.OffsetY, p.OffsetY != ""
	case ParamSequence:
		return p.Sequence, p.Sequence != ""
	}
	return "", false
}

func floatValue(v *float64) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.FormatFloat(*v, 'g', -1, 64), true
}

// Classify derives the test type from a record's flags and raw tokens.
// Priority: dark, then ramp, then rotating, then voltage sweep (energy and
// voltage both present), then energy test (energy only), else unknown.
func Classify(p Parameters) TestType {
	switch {
	case p.IsDark:
		return TestDark
	case p.IsRamp:
		return TestRampUp
	case p.IsRotating:
		return TestRotating
	case p.BeamEnergyRaw != "" && p.ESAVoltageRaw != "":
		return TestVoltageSweep
	case p.BeamEnergyRaw != "":
		return TestEnergyTest
	default:
		return TestUnknown
	}
}
