package adventure

import (
	"fmt"
	"strings"

	"adventure-server-go/internal/domain/geo"
)

// Query is one search request.
type Query struct {
	Center      geo.Coordinate
	RadiusMiles float64
}

// RadiusKm converts the search radius.
func (q Query) RadiusKm() float64 {
	return geo.MilesToKilometers(q.RadiusMiles)
}

// ZoomLevel is the initial map zoom for the radius.
func (q Query) ZoomLevel() int {
	if q.RadiusMiles <= 20 {
		return 11
	}
	return 10
}

// BuildPrompt asks for the top five places per category as a JSON object.
func BuildPrompt(q Query) string {
	lat, lon := q.Center.Latitude, q.Center.Longitude
	categories := strings.Join(Categories, ", ")

	var b strings.Builder
	b.WriteString("You are an expert local guide specializing in outdoor adventures.\n")
	fmt.Fprintf(&b, "Find the top 5 locations for each of the following categories within approximately %.1f km (equivalent to %.1f miles) of latitude %v, longitude %v:\n%s.\n\n",
		q.RadiusKm(), q.RadiusMiles, lat, lon, categories)
	b.WriteString("Respond ONLY with a valid JSON object containing a single key \"locations\".\n")
	b.WriteString("The value of \"locations\" should be a list of JSON objects, where each object represents a location and has the following keys:\n")
	b.WriteString("- \"name\": The name of the location.\n")
	fmt.Fprintf(&b, "- \"type\": The type of location (must be one of: %s).\n", categories)
	b.WriteString("- \"latitude\": The latitude of the location (float).\n")
	b.WriteString("- \"longitude\": The longitude of the location (float).\n\n")
	b.WriteString("Aim to provide up to 5 distinct locations for each category if available within the radius.\n\n")
	fmt.Fprintf(&b, "Example JSON format:\n{\"locations\": [{\"name\": \"Example Trail Head\", \"type\": \"Hiking Trail\", \"latitude\": %.4f, \"longitude\": %.4f}]}\n\n",
		lat+0.01, lon+0.01)
	b.WriteString("Ensure the coordinates are as accurate as possible. Do not include any text before or after the JSON object. ")
	b.WriteString("If no locations are found for a category or overall, return an empty list or fewer items as appropriate: {\"locations\": []}.\n")
	return b.String()
}
