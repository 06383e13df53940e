package main

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if Clamp(-5, 0, 10) != 0 {
		t.Error("expected clamp to min")
	}
	if Clamp(15, 0, 10) != 10 {
		t.Error("expected clamp to max")
	}
	if Clamp(4, 0, 10) != 4 {
		t.Error("expected value unchanged")
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(0, 0, 3, 4); d != 5 {
		t.Errorf("expected 5, got %f", d)
	}
}

func TestNormalizeAngleRange(t *testing.T) {
	inputs := []float64{0, 1, -1, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 7.5, -7.5, 100, -100, 1e6}
	for _, a := range inputs {
		got := NormalizeAngle(a)
		if got <= -math.Pi || got > math.Pi {
			t.Errorf("NormalizeAngle(%f) = %f, outside (-PI, PI]", a, got)
		}
	}
	if got := NormalizeAngle(-math.Pi); got != math.Pi {
		t.Errorf("expected -PI to map to PI, got %f", got)
	}
}

func TestNormalizeAnglePeriodic(t *testing.T) {
	for _, a := range []float64{0.3, -2.1, 1.5, 2.9, -0.7} {
		base := NormalizeAngle(a)
		for k := -5; k <= 5; k++ {
			got := NormalizeAngle(a + 2*math.Pi*float64(k))
			if math.Abs(got-base) > 1e-9 {
				t.Errorf("NormalizeAngle(%f + 2PI*%d) = %f, expected %f", a, k, got, base)
			}
		}
	}
}

func TestNormalizeAngleNonFinite(t *testing.T) {
	if NormalizeAngle(math.NaN()) != 0 {
		t.Error("expected NaN to normalize to 0")
	}
	if NormalizeAngle(math.Inf(1)) != 0 {
		t.Error("expected Inf to normalize to 0")
	}
}

func TestGenerateIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
