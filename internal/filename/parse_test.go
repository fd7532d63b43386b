package filename

import (
	"testing"
	"time"
)

func wantFloat(t *testing.T, field string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s: expected %v, got absent", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s: expected %v, got %v", field, want, *got)
	}
}

func TestDetailedPattern(t *testing.T) {
	p := Parse("ACI_ESA-Inner-62-Hor79_Beam-1000eV_Focus-X-pt4-Y-2_Offset-X--pt1_Y-1_Wave-Triangle_ESA--181_MCP-2200-100240922-213604.fits")

	if p.Grammar != "detailed" {
		t.Fatalf("expected detailed grammar, got %q", p.Grammar)
	}
	wantFloat(t, "beam energy", p.BeamEnergy, 1000.0)
	if p.BeamEnergyUnit != "eV" {
		t.Errorf("expected unit eV, got %q", p.BeamEnergyUnit)
	}
	wantFloat(t, "esa voltage", p.ESAVoltage, -181.0)
	wantFloat(t, "mcp voltage", p.MCPVoltage, 2200.0)
	wantFloat(t, "inner angle", p.InnerAngle, 62.0)
	wantFloat(t, "horizontal", p.Horizontal, 79.0)
	if p.IsAngleRange {
		t.Error("plain angle must not set the range flag")
	}
	if p.FocusX != "pt4" || p.FocusY != "2" {
		t.Errorf("focus: expected pt4/2, got %q/%q", p.FocusX, p.FocusY)
	}
	if p.OffsetX != "-pt1" || p.OffsetY != "1" {
		t.Errorf("offset: expected -pt1/1, got %q/%q", p.OffsetX, p.OffsetY)
	}
	if p.WaveType != "Triangle" {
		t.Errorf("expected wave type Triangle, got %q", p.WaveType)
	}
	if p.TestType != TestVoltageSweep {
		t.Errorf("expected voltage_sweep, got %q", p.TestType)
	}
	if p.Kind != KindFITS {
		t.Errorf("expected fits kind, got %q", p.Kind)
	}
}

func TestSimpleEnergyWithTimestamp(t *testing.T) {
	p := Parse("ACI ESA 1000eV240922-190315.fits")

	if p.Grammar != "simple_energy" {
		t.Fatalf("expected simple_energy grammar, got %q", p.Grammar)
	}
	wantFloat(t, "beam energy", p.BeamEnergy, 1000.0)
	if p.BeamEnergyUnit != "eV" {
		t.Errorf("expected unit eV, got %q", p.BeamEnergyUnit)
	}
	if p.TestType != TestEnergyTest {
		t.Errorf("expected energy_test, got %q", p.TestType)
	}
	if p.Timestamp == nil {
		t.Fatal("expected timestamp")
	}
	want := time.Date(2024, 9, 22, 19, 3, 15, 0, time.UTC)
	if !p.Timestamp.Equal(want) {
		t.Errorf("expected %v, got %v", want, *p.Timestamp)
	}
}

func TestEnergyNormalization(t *testing.T) {
	cases := []struct {
		name string
		want float64
	}{
		{"ACI ESA 1000eV.fits", 1000.0},
		{"ACI ESA 500eV.fits", 500.0},
		{"ACI ESA 5keV.fits", 5000.0},
		{"ACI ESA 1.5keV.fits", 1500.0},
		{"ACI ESA 2.5keV.fits", 2500.0},
	}

	for _, tc := range cases {
		p := Parse(tc.name)
		if p.BeamEnergy == nil {
			t.Errorf("%s: energy absent", tc.name)
			continue
		}
		if *p.BeamEnergy != tc.want {
			t.Errorf("%s: expected %v eV, got %v", tc.name, tc.want, *p.BeamEnergy)
		}
		if p.BeamEnergyUnit != "eV" {
			t.Errorf("%s: expected normalized unit eV, got %q", tc.name, p.BeamEnergyUnit)
		}
	}
}

func TestVoltageEnergyPattern(t *testing.T) {
	cases := []struct {
		name        string
		wantVoltage float64
		wantEnergy  float64
		wantStamp   bool
	}{
		{"ACI ESA 912V 5KEV BEAM240922-190315.fits", 912, 5000, true},
		{"ACI ESA 912V 5keV BEAM240922-190315.fits", 912, 5000, true},
		{"ACI ESA 912V 5kEV BEAM.fits", 912, 5000, false},
		{"ACI ESA 912V 5KeV BEAM.fits", 912, 5000, false},
		{"ACI ESA 500V 1000EV BEAM.fits", 500, 1000, false},
		// The tail after BEAM does not line up with the timestamp token, so
		// the stamp stays absent while voltage and energy still parse.
		{"ACI ESA 912V 5KEV BEAM PREP240921-194025.fits", 912, 5000, false},
	}

	for _, tc := range cases {
		p := Parse(tc.name)
		if p.Grammar != "voltage_energy" {
			t.Errorf("%s: expected voltage_energy grammar, got %q", tc.name, p.Grammar)
			continue
		}
		wantFloat(t, tc.name+" voltage", p.ESAVoltage, tc.wantVoltage)
		wantFloat(t, tc.name+" energy", p.BeamEnergy, tc.wantEnergy)
		if got := p.Timestamp != nil; got != tc.wantStamp {
			t.Errorf("%s: timestamp present=%v, want %v", tc.name, got, tc.wantStamp)
		}
		if p.TestType != TestVoltageSweep {
			t.Errorf("%s: expected voltage_sweep, got %q", tc.name, p.TestType)
		}
	}
}

func TestBeamPrepPattern(t *testing.T) {
	p := Parse("ACI ESA 5KEV BEAM PREP240921-194025.fits")

	if p.Grammar != "beam_prep" {
		t.Fatalf("expected beam_prep grammar, got %q", p.Grammar)
	}
	wantFloat(t, "beam energy", p.BeamEnergy, 5000.0)
	if p.ESAVoltage != nil {
		t.Error("beam prep name carries no voltage")
	}
	if p.Timestamp == nil {
		t.Error("expected timestamp after PREP")
	}
	if p.TestType != TestEnergyTest {
		t.Errorf("expected energy_test, got %q", p.TestType)
	}
}

func TestAngleRange(t *testing.T) {
	p := Parse("ACI_ESA-Inner-84to-118-Hor79_Beam-1000eV_Focus-X-pt4-Y-2_Offset-X--pt1_Y-1_Wave-Triangle_ESA--181_MCP-2200-100.fits")

	if !p.IsAngleRange {
		t.Fatal("expected range flag")
	}
	if p.InnerAngleRange == nil {
		t.Fatal("expected stored range")
	}
	if p.InnerAngleRange.Min != -118 || p.InnerAngleRange.Max != 84 {
		t.Errorf("expected range (-118, 84), got (%v, %v)", p.InnerAngleRange.Min, p.InnerAngleRange.Max)
	}
	wantFloat(t, "representative angle", p.InnerAngle, -17.0)

	if v, ok := p.Value(ParamInnerAngle); !ok || v != "-17" {
		t.Errorf("expected value -17, got %q (%v)", v, ok)
	}
}

func TestDarkPattern(t *testing.T) {
	p := Parse("ACI ESA Dark 240922.fits240922-183755.fits")

	if p.Grammar != "dark" {
		t.Fatalf("expected dark grammar, got %q", p.Grammar)
	}
	if !p.IsDark {
		t.Error("expected dark flag")
	}
	if p.TestType != TestDark {
		t.Errorf("expected dark, got %q", p.TestType)
	}
	if p.DateRaw != "240922" {
		t.Errorf("expected date token 240922, got %q", p.DateRaw)
	}
	if p.Timestamp == nil {
		t.Error("expected timestamp after embedded extension")
	}
}

func TestRampPatterns(t *testing.T) {
	p := Parse("ACI ESA RAMP UP3240920-222421.fits")
	if p.Grammar != "ramp_up" {
		t.Fatalf("expected ramp_up grammar, got %q", p.Grammar)
	}
	if !p.IsRamp || p.TestType != TestRampUp {
		t.Errorf("expected ramp classification, got %q", p.TestType)
	}
	// Without a space after UP the trailing run of digits belongs to no
	// group: neither a sequence nor a timestamp is recovered.
	if p.Sequence != "" {
		t.Errorf("expected no sequence, got %q", p.Sequence)
	}
	if p.Timestamp != nil {
		t.Errorf("expected no timestamp, got %v", *p.Timestamp)
	}

	p = Parse("ACI RAMP UP run1 20240920 ESA 500V.fits")
	if p.Grammar != "ramp_up" {
		t.Fatalf("expected ramp_up grammar, got %q", p.Grammar)
	}
	if p.Sequence != "run1" {
		t.Errorf("expected sequence run1, got %q", p.Sequence)
	}
	if p.DateRaw != "20240920" {
		t.Errorf("expected date 20240920, got %q", p.DateRaw)
	}
	wantFloat(t, "ramp voltage", p.ESAVoltage, 500.0)
	// Flags outrank the voltage for classification.
	if p.TestType != TestRampUp {
		t.Errorf("expected ramp_up, got %q", p.TestType)
	}
}

func TestRotatingPattern(t *testing.T) {
	p := Parse("ACI_ESA_Rotating2_Beam-1000eV_Focus-X-pt4-Y-2_Offset-X--pt1_Y-1_Wave-Triangle_ESA--181_MCP-2200-100240922-213604.fits")

	if p.Grammar != "rotating" {
		t.Fatalf("expected rotating grammar, got %q", p.Grammar)
	}
	if !p.IsRotating || p.TestType != TestRotating {
		t.Errorf("expected rotating classification, got %q", p.TestType)
	}
	if p.Sequence != "2" {
		t.Errorf("expected sequence 2, got %q", p.Sequence)
	}
	wantFloat(t, "beam energy", p.BeamEnergy, 1000.0)
	wantFloat(t, "esa voltage", p.ESAVoltage, -181.0)
}

func TestUnmatchedFilename(t *testing.T) {
	p := Parse("random_file.txt")

	if p.Grammar != "" {
		t.Errorf("expected no grammar, got %q", p.Grammar)
	}
	if p.Kind != KindUnknown {
		t.Errorf("expected unknown kind, got %q", p.Kind)
	}
	if p.TestType != TestUnknown {
		t.Errorf("expected unknown test type, got %q", p.TestType)
	}
	if p.BeamEnergy != nil || p.ESAVoltage != nil {
		t.Error("unmatched name must not carry parameters")
	}
}

func TestKindDetection(t *testing.T) {
	cases := []struct {
		name string
		want Kind
	}{
		{"a.fits", KindFITS},
		{"a.FITS", KindFITS},
		{"a.map", KindMap},
		{"a.fits.map", KindMap},
		{"a.phd", KindPHD},
		{"a.fits.phd", KindPHD},
		{"a.txt", KindUnknown},
		{"a", KindUnknown},
	}

	for _, tc := range cases {
		if got := Parse(tc.name).Kind; got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestGrammarPriority(t *testing.T) {
	// A fully-annotated name contains substrings the loose grammars could
	// match; the detailed grammar must win.
	p := Parse("ACI_ESA-Inner-62-Hor79_Beam-1000eV_Focus-X-pt4-Y-2_Offset-X--pt1_Y-1_Wave-Triangle_ESA--181_MCP-2200-100.fits")
	if p.Grammar != "detailed" {
		t.Errorf("expected detailed to outrank looser grammars, got %q", p.Grammar)
	}

	// A voltage-prefixed name must not fall through to the energy-only
	// grammar and lose the voltage.
	p = Parse("ACI ESA 912V 5KEV BEAM.fits")
	if p.Grammar != "voltage_energy" {
		t.Errorf("expected voltage_energy, got %q", p.Grammar)
	}
	if p.ESAVoltage == nil {
		t.Error("voltage lost to a looser grammar")
	}
}

func TestClassificationIdempotent(t *testing.T) {
	names := []string{
		"ACI_ESA-Inner-62-Hor79_Beam-1000eV_Focus-X-pt4-Y-2_Offset-X--pt1_Y-1_Wave-Triangle_ESA--181_MCP-2200-100240922-213604.fits",
		"ACI ESA 1000eV240922-190315.fits",
		"ACI ESA 912V 5KEV BEAM240922-190315.fits",
		"ACI ESA 5KEV BEAM PREP240921-194025.fits",
		"ACI ESA RAMP UP3240920-222421.fits",
		"ACI ESA Dark 240922.fits240922-183755.fits",
		"ACI_ESA_Rotating2_Beam-1000eV_Focus-X-pt4-Y-2_Offset-X--pt1_Y-1_Wave-Triangle_ESA--181_MCP-2200-100.fits",
		"random_file.txt",
	}

	for _, name := range names {
		p := Parse(name)
		if got := Classify(p); got != p.TestType {
			t.Errorf("%s: re-derived %q, parsed %q", name, got, p.TestType)
		}
	}
}

func TestInvalidTimestampStaysAbsent(t *testing.T) {
	// Month 13 is not a calendar date; the raw token is kept, the parsed
	// value stays absent.
	p := Parse("ACI ESA Dark 240922.fits991332-999999.fits")

	if p.TimestampRaw != "991332-999999" {
		t.Errorf("expected raw token kept, got %q", p.TimestampRaw)
	}
	if p.Timestamp != nil {
		t.Errorf("expected absent timestamp, got %v", *p.Timestamp)
	}
}

func TestValueLookup(t *testing.T) {
	p := Parse("ACI ESA 912V 5KEV BEAM240922-190315.fits")

	if v, ok := p.Value(ParamBeamEnergy); !ok || v != "5000" {
		t.Errorf("beam energy: got %q (%v)", v, ok)
	}
	if v, ok := p.Value(ParamESAVoltage); !ok || v != "912" {
		t.Errorf("esa voltage: got %q (%v)", v, ok)
	}
	if v, ok := p.Value(ParamTimestamp); !ok || v != "2024-09-22 19:03:15" {
		t.Errorf("timestamp: got %q (%v)", v, ok)
	}
	if v, ok := p.Value(ParamTestType); !ok || v != "voltage_sweep" {
		t.Errorf("test type: got %q (%v)", v, ok)
	}
	if _, ok := p.Value(ParamInnerAngle); ok {
		t.Error("inner angle must be absent for this name")
	}
	if _, ok := p.Value("no_such_parameter"); ok {
		t.Error("unknown parameter names must report absent")
	}
}
