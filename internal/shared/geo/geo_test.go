package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineIdenticalPointsIsZero(t *testing.T) {
	points := [][2]float64{{0, 0}, {-6.2, 106.816}, {89.9999, -179.9999}, {41.38, 2.17}}
	for _, p := range points {
		if d := HaversineMeters(p[0], p[1], p[0], p[1]); d != 0 {
			t.Fatalf("expected exact zero for %v, got %v", p, d)
		}
	}
}

func TestHaversineSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{0, 0, 0, 0.001},
		{-6.2, 106.816, -6.9175, 107.6191},
		{51.5, -0.12, 40.71, -74.0},
		{10, 20, -10, -160},
	}
	for _, p := range pairs {
		ab := HaversineMeters(p[0], p[1], p[2], p[3])
		ba := HaversineMeters(p[2], p[3], p[0], p[1])
		if ab != ba {
			t.Fatalf("expected symmetric distance for %v: %v vs %v", p, ab, ba)
		}
	}
}

func TestHaversineEquatorMillidegree(t *testing.T) {
	d := HaversineMeters(0, 0, 0, 0.001)
	if math.Abs(d-111.19) > 0.01 {
		t.Fatalf("expected ~111.19m, got %v", d)
	}
}

func TestHaversineAntipodal(t *testing.T) {
	d := HaversineMeters(0, 0, 0, 180)
	want := math.Pi * EarthRadiusM
	if math.IsNaN(d) || math.Abs(d-want) > 1e-6 {
		t.Fatalf("expected half circumference %v, got %v", want, d)
	}

	d = HaversineMeters(45, 30, -45, -150)
	if math.IsNaN(d) || math.Abs(d-want) > 1 {
		t.Fatalf("expected antipodal distance near %v, got %v", want, d)
	}
}
