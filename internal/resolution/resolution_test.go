package resolution

import (
	"math"
	"testing"

	"github.com/guygrubbs/phd-fits/internal/impact"
)

func region(name string, energy, voltage float64, angle *float64) impact.Region {
	return impact.Region{
		Filename:      name,
		BeamEnergy:    energy,
		ESAVoltage:    voltage,
		RotationAngle: angle,
		Area:          64,
		SignalToNoise: 40,
		CentroidX:     500,
		CentroidY:     510,
	}
}

func angle(v float64) *float64 { return &v }

func TestSurveyGroupsByEnergyAndAngle(t *testing.T) {
	params := DefaultParams()
	params.MinVoltagePoints = 2
	a := NewAnalyzer(params, nil)

	series := a.Survey([]impact.Region{
		region("a1", 1000, -200, angle(62)),
		region("a2", 1000, -100, angle(62)),
		region("b1", 1000, -250, nil),
		region("b2", 1000, -150, nil),
		region("short", 2000, -400, angle(62)), // one voltage only
		region("noVolt", 1000, 0, angle(62)),
		region("noEnergy", 0, -200, angle(62)),
	})

	if len(series) != 2 {
		t.Fatalf("series: got %d, want 2", len(series))
	}

	// Energy ties order the parked-platform cell first.
	parked := series[0]
	if parked.Angle != nil {
		t.Fatalf("series[0] angle: got %v, want nil", *parked.Angle)
	}
	if parked.BeamEnergy != 1000 {
		t.Errorf("energy: got %v", parked.BeamEnergy)
	}
	if len(parked.Voltages) != 2 || parked.Voltages[0] != -250 || parked.Voltages[1] != -150 {
		t.Errorf("voltages: got %v", parked.Voltages)
	}

	rotated := series[1]
	if rotated.Angle == nil || *rotated.Angle != 62 {
		t.Fatalf("series[1] angle: got %v", rotated.Angle)
	}
	if len(rotated.Points) != 2 {
		t.Fatalf("points: got %d", len(rotated.Points))
	}
	// Points come back in voltage order.
	if rotated.Points[0].Filename != "a1" || rotated.Points[1].Filename != "a2" {
		t.Errorf("point order: got %s, %s", rotated.Points[0].Filename, rotated.Points[1].Filename)
	}
}

func TestSurveySkipsShortSweeps(t *testing.T) {
	a := NewAnalyzer(DefaultParams(), nil) // needs 3 voltage points

	series := a.Survey([]impact.Region{
		region("v1", 1000, -100, nil),
		region("v2", 1000, -200, nil),
		region("v2b", 1000, -200, nil), // repeat voltage, still 2 distinct
	})
	if len(series) != 0 {
		t.Fatalf("series: got %d, want 0", len(series))
	}

	series = a.Survey([]impact.Region{
		region("v1", 1000, -100, nil),
		region("v2", 1000, -200, nil),
		region("v3", 1000, -300, nil),
	})
	if len(series) != 1 {
		t.Fatalf("series: got %d, want 1", len(series))
	}
	if len(series[0].Points) != 3 {
		t.Errorf("points: got %d", len(series[0].Points))
	}
}

func TestPointFigures(t *testing.T) {
	params := DefaultParams()
	params.MinVoltagePoints = 1
	a := NewAnalyzer(params, nil)

	r := region("x", 5000, -912, nil)
	series := a.Survey([]impact.Region{r})
	if len(series) != 1 || len(series[0].Points) != 1 {
		t.Fatal("expected a single point")
	}
	p := series[0].Points[0]

	// Area 64 on a 1024-wide detector: sqrt(64)/1024 * 100.
	if want := 8.0 / 1024 * 100; p.AngularResolution != want {
		t.Errorf("angular resolution: got %v, want %v", p.AngularResolution, want)
	}
	if want := 5000.0 / 912; math.Abs(p.KFactor-want) > 1e-12 {
		t.Errorf("k factor: got %v, want %v", p.KFactor, want)
	}
	if p.SpatialResolution != 40 {
		t.Errorf("spatial resolution: got %v", p.SpatialResolution)
	}
	if p.CentroidX != 500 || p.CentroidY != 510 {
		t.Errorf("centroid: got (%v, %v)", p.CentroidX, p.CentroidY)
	}
	if p.ESAVoltage != -912 {
		t.Errorf("voltage: got %v", p.ESAVoltage)
	}
}
