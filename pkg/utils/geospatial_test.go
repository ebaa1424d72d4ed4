package utils

import (
	"math"
	"testing"
)

func TestHaversineDistanceKnownRoute(t *testing.T) {
	// Accra to Kumasi, roughly 200 km.
	distance := HaversineDistance(5.6037, -0.1870, 6.6885, -1.6244)
	if distance < 190 || distance > 210 {
		t.Errorf("Accra-Kumasi distance = %.1f km, want about 200", distance)
	}
}

func TestHaversineDistanceSamePoint(t *testing.T) {
	if d := HaversineDistance(5.6, -0.19, 5.6, -0.19); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestHaversineDistanceSymmetry(t *testing.T) {
	a := HaversineDistance(5.6037, -0.1870, 6.6885, -1.6244)
	b := HaversineDistance(6.6885, -1.6244, 5.6037, -0.1870)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestEstimateMinutes(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		speed    float64
		want     int
	}{
		{"exact hour", 60, 60, 60},
		{"rounds up", 61.2, 60, 62},
		{"zero distance", 0, 60, 0},
		{"short hop", 0.5, 60, 1},
		{"default speed on zero", 120, 0, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateMinutes(tt.distance, tt.speed); got != tt.want {
				t.Errorf("EstimateMinutes(%v, %v) = %d, want %d", tt.distance, tt.speed, got, tt.want)
			}
		})
	}
}

func TestIsWithinRadius(t *testing.T) {
	// Two points about 1.1 km apart.
	if !IsWithinRadius(5.60, -0.19, 5.61, -0.19, 2) {
		t.Error("points 1.1 km apart should be within a 2 km radius")
	}
	if IsWithinRadius(5.60, -0.19, 5.61, -0.19, 1) {
		t.Error("points 1.1 km apart should not be within a 1 km radius")
	}
}

func TestValidCoordinates(t *testing.T) {
	valid := [][2]float64{{0, 0}, {-90, -180}, {90, 180}, {5.6037, -0.1870}}
	for _, c := range valid {
		if !ValidCoordinates(c[0], c[1]) {
			t.Errorf("ValidCoordinates(%v, %v) = false, want true", c[0], c[1])
		}
	}
	invalid := [][2]float64{{90.1, 0}, {-90.1, 0}, {0, 180.1}, {0, -180.1}}
	for _, c := range invalid {
		if ValidCoordinates(c[0], c[1]) {
			t.Errorf("ValidCoordinates(%v, %v) = true, want false", c[0], c[1])
		}
	}
}
