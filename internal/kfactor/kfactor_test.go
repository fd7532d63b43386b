package kfactor

import (
	"errors"
	"math"
	"testing"

	"github.com/guygrubbs/phd-fits/internal/impact"
)

func region(energy, voltage, centroidX float64) impact.Region {
	return impact.Region{
		Filename:   "r",
		BeamEnergy: energy,
		ESAVoltage: voltage,
		CentroidX:  centroidX,
	}
}

func TestEstimate(t *testing.T) {
	e := NewEstimator(impact.DefaultGeometry(), nil)

	res, err := e.Estimate([]impact.Region{
		region(1000, -200, 768), // k = 5
		region(1200, -200, 256), // k = 6
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.N != 2 {
		t.Fatalf("expected 2 measurements, got %d", res.N)
	}
	if res.Mean != 5.5 || res.Median != 5.5 {
		t.Errorf("mean/median: got %v/%v", res.Mean, res.Median)
	}
	if res.Std != 0.5 {
		t.Errorf("std: got %v", res.Std)
	}
	if res.Min != 5 || res.Max != 6 {
		t.Errorf("range: got %v..%v", res.Min, res.Max)
	}

	m := res.Measurements[0]
	if m.MeasuredDeflection != 0.5 {
		t.Errorf("measured deflection: got %v", m.MeasuredDeflection)
	}
	if m.TheoreticalDeflection != -0.2 {
		t.Errorf("theoretical deflection: got %v", m.TheoreticalDeflection)
	}
	if res.Measurements[1].MeasuredDeflection != -0.5 {
		t.Errorf("measured deflection: got %v", res.Measurements[1].MeasuredDeflection)
	}
}

func TestEstimateBenchValues(t *testing.T) {
	e := NewEstimator(impact.DefaultGeometry(), nil)

	res, err := e.Estimate([]impact.Region{
		region(1000, -181, 512),
		region(5000, -912, 512),
	})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.KFactors[0]-5.52) > 0.01 {
		t.Errorf("1000eV/-181V: got k %v", res.KFactors[0])
	}
	if math.Abs(res.KFactors[1]-5.48) > 0.01 {
		t.Errorf("5000eV/-912V: got k %v", res.KFactors[1])
	}
}

func TestEstimateSkipsIncompleteRegions(t *testing.T) {
	e := NewEstimator(impact.DefaultGeometry(), nil)

	res, err := e.Estimate([]impact.Region{
		region(0, -200, 512),    // no energy
		region(1000, 0, 512),    // no voltage
		region(1000, -200, 512), // usable
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.N != 1 {
		t.Fatalf("expected 1 measurement, got %d", res.N)
	}
	if res.Mean != 5 || res.Std != 0 {
		t.Errorf("single measurement: mean %v std %v", res.Mean, res.Std)
	}
}

func TestEstimateNoMeasurements(t *testing.T) {
	e := NewEstimator(impact.DefaultGeometry(), nil)

	_, err := e.Estimate([]impact.Region{
		region(0, 0, 512),
		region(1000, 0, 512),
	})
	if !errors.Is(err, ErrNoMeasurements) {
		t.Fatalf("expected ErrNoMeasurements, got %v", err)
	}

	if _, err := e.Estimate(nil); !errors.Is(err, ErrNoMeasurements) {
		t.Fatalf("expected ErrNoMeasurements for empty input, got %v", err)
	}
}

func TestEstimateMedianOddCount(t *testing.T) {
	e := NewEstimator(impact.DefaultGeometry(), nil)

	res, err := e.Estimate([]impact.Region{
		region(1000, -100, 512), // k = 10
		region(1000, -250, 512), // k = 4
		region(1000, -200, 512), // k = 5
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Median != 5 {
		t.Errorf("median: got %v", res.Median)
	}
	if res.Min != 4 || res.Max != 10 {
		t.Errorf("range: got %v..%v", res.Min, res.Max)
	}
	// KFactors keeps input order even though the median sorts a copy.
	if res.KFactors[0] != 10 || res.KFactors[1] != 4 || res.KFactors[2] != 5 {
		t.Errorf("k list reordered: %v", res.KFactors)
	}
}

func TestEstimateNegativeVoltageMagnitude(t *testing.T) {
	e := NewEstimator(impact.DefaultGeometry(), nil)

	res, err := e.Estimate([]impact.Region{region(1000, 200, 512)})
	if err != nil {
		t.Fatal(err)
	}
	// Positive and negative voltages of equal magnitude give the same k.
	res2, err := e.Estimate([]impact.Region{region(1000, -200, 512)})
	if err != nil {
		t.Fatal(err)
	}
	if res.KFactors[0] != res2.KFactors[0] {
		t.Errorf("sign must not change k: %v vs %v", res.KFactors[0], res2.KFactors[0])
	}
}
