// Package adventure finds outdoor points of interest around a coordinate and
// renders them onto a layered HTML map.
package adventure

// Style is the marker colour and glyphicon for a category.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// UnknownCategory collects points whose type is not one of Categories.
const UnknownCategory = "Unknown Category"

var unknownStyle = Style{Color: "gray", Icon: "question-sign"}

// Categories lists the supported point types in prompt and layer order.
var Categories = []string{
	"Hiking Trail",
	"Fishing Spot",
	"Campsite",
	"Park",
	"Scenic Viewpoint",
	"Kayaking/Canoeing Launch Point",
	"Mountain Biking Trail",
}

var categoryStyles = map[string]Style{
	"Hiking Trail":                   {Color: "green", Icon: "leaf"},
	"Fishing Spot":                   {Color: "blue", Icon: "tint"},
	"Campsite":                       {Color: "orange", Icon: "home"},
	"Park":                           {Color: "darkgreen", Icon: "tree-conifer"},
	"Scenic Viewpoint":               {Color: "purple", Icon: "eye-open"},
	"Kayaking/Canoeing Launch Point": {Color: "cadetblue", Icon: "road"},
	"Mountain Biking Trail":          {Color: "red", Icon: "bicycle"},
}

// StyleFor returns the style of a category and whether it is known.
func StyleFor(category string) (Style, bool) {
	s, ok := categoryStyles[category]
	if !ok {
		return unknownStyle, false
	}
	return s, true
}
