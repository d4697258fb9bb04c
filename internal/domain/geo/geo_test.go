package geo

import (
	"math"
	"testing"

	platformerrors "adventure-server-go/internal/platform/errors"
)

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{"washington", Coordinate{38.8951, -77.0364}, false},
		{"poles and antimeridian", Coordinate{90, 180}, false},
		{"latitude too high", Coordinate{90.5, 0}, true},
		{"longitude too low", Coordinate{0, -180.1}, true},
		{"nan", Coordinate{math.NaN(), 0}, true},
		{"inf", Coordinate{0, math.Inf(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !platformerrors.IsKind(err, platformerrors.KindInput) {
				t.Fatalf("expected input error kind, got %v", err)
			}
		})
	}
}

func TestMilesToKilometers(t *testing.T) {
	if got := MilesToKilometers(15); math.Abs(got-24.1401) > 1e-9 {
		t.Fatalf("MilesToKilometers(15) = %v", got)
	}
}

func TestDistance(t *testing.T) {
	// New York to London, roughly 5570 km
	d := Distance(Coordinate{40.7128, -74.0060}, Coordinate{51.5074, -0.1278})
	if d < 5500 || d > 5650 {
		t.Fatalf("unexpected distance %v", d)
	}
	if Distance(Coordinate{10, 10}, Coordinate{10, 10}) != 0 {
		t.Fatalf("distance to self should be zero")
	}
}

type place struct {
	id string
	at Coordinate
}

func TestWithinRadius(t *testing.T) {
	center := Coordinate{40.0, -74.0}
	places := []place{
		{"far", Coordinate{41.0, -73.0}},      // ~140 km
		{"center", center},                    // 0 km
		{"zero", Coordinate{0, 0}},            // placeholder
		{"near", Coordinate{40.1, -74.1}},     // ~14 km
		{"invalid", Coordinate{123, -74}},     // out of range
		{"edge", Coordinate{40.0, -74.55}},    // ~47 km
	}

	got := WithinRadius(center, 50, places, func(p place) Coordinate { return p.at })

	want := []string{"center", "near", "edge"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %+v", want, got)
	}
	for i, p := range got {
		if p.id != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], p.id)
		}
	}
}

func TestWithinRadiusAcrossAntimeridian(t *testing.T) {
	center := Coordinate{0, 179.9}
	places := []place{
		{"east", Coordinate{0, -179.9}}, // ~22 km across the line
		{"west", Coordinate{0, 178.0}},  // ~211 km
	}

	got := WithinRadius(center, 50, places, func(p place) Coordinate { return p.at })
	if len(got) != 1 || got[0].id != "east" {
		t.Fatalf("expected only east, got %+v", got)
	}
}

func TestWithinRadiusEmpty(t *testing.T) {
	if got := WithinRadius(Coordinate{}, 10, []place(nil), func(p place) Coordinate { return p.at }); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := WithinRadius(Coordinate{1, 1}, 0, []place{{"a", Coordinate{1, 1}}}, func(p place) Coordinate { return p.at }); got != nil {
		t.Fatalf("expected nil for non-positive radius, got %v", got)
	}
}
