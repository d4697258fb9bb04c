// Package geo holds coordinate validation, distance math and radius filtering.
package geo

import (
	"fmt"
	"math"

	platformerrors "adventure-server-go/internal/platform/errors"
)

const (
	// MilesToKm is the conversion factor used for every radius.
	MilesToKm     = 1.60934
	EarthRadiusKm = 6371.0
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// IsZero reports the (0,0) placeholder models emit for unknown places.
func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// Validate checks that both components are finite and in range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return platformerrors.New(platformerrors.KindInput, "geo.validate", fmt.Sprintf("latitude out of range: %v", c.Latitude))
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return platformerrors.New(platformerrors.KindInput, "geo.validate", fmt.Sprintf("longitude out of range: %v", c.Longitude))
	}
	return nil
}

func MilesToKilometers(miles float64) float64 {
	return miles * MilesToKm
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
