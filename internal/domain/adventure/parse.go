package adventure

import (
	"strconv"
	"strings"

	"adventure-server-go/internal/core/providers/genai"
	"adventure-server-go/internal/domain/geo"
	"adventure-server-go/internal/utils"
)

// PointOfInterest is one place returned by the model.
type PointOfInterest struct {
	Name      string  `json:"name"`
	Category  string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinate returns the point's position.
func (p PointOfInterest) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

type rawLocation struct {
	Name      any `json:"name"`
	Type      any `json:"type"`
	Latitude  any `json:"latitude"`
	Longitude any `json:"longitude"`
}

type rawEnvelope struct {
	Locations *[]rawLocation `json:"locations"`
}

// ParseResult is the outcome of decoding model output.
type ParseResult struct {
	Points []PointOfInterest
	// MissingKey is set when the object had no "locations" list.
	MissingKey bool
	// Skipped counts entries with unusable coordinates.
	Skipped int
}

// ParseLocations decodes the {"locations": [...]} object. Entries with
// missing, unparsable or (0,0) coordinates are skipped.
func ParseLocations(raw string) (ParseResult, error) {
	var env rawEnvelope
	if err := genai.DecodeJSON(raw, &env); err != nil {
		return ParseResult{}, err
	}
	if env.Locations == nil {
		return ParseResult{MissingKey: true}, nil
	}

	var res ParseResult
	for _, loc := range *env.Locations {
		lat, latOK := toFloat(loc.Latitude)
		lon, lonOK := toFloat(loc.Longitude)
		point := PointOfInterest{
			Name:      textOr(loc.Name, "Unknown Location"),
			Category:  textOr(loc.Type, UnknownCategory),
			Latitude:  lat,
			Longitude: lon,
		}
		if !latOK || !lonOK || point.Coordinate().IsZero() || point.Coordinate().Validate() != nil {
			res.Skipped++
			continue
		}
		res.Points = append(res.Points, point)
	}
	return res, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func textOr(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return utils.CleanText(s)
}
