package adventure

import (
	"bytes"
	"fmt"
	"html"
	"html/template"

	platformerrors "adventure-server-go/internal/platform/errors"
)

type tileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

var baseLayers = []tileLayer{
	{
		Name:        "OpenStreetMap",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "Data by &copy; OpenStreetMap contributors, under ODbL.",
	},
	{
		Name:        "Terrain",
		URL:         "https://tiles.stadiamaps.com/tiles/stamen_terrain/{z}/{x}/{y}.png",
		Attribution: "Map tiles by Stamen Design, CC BY 3.0. Map data &copy; OpenStreetMap contributors",
	},
	{
		Name:        "Light Map",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
		Attribution: "Map tiles by CartoDB, under CC BY 3.0. Data by OpenStreetMap, under ODbL.",
	},
	{
		Name:        "Dark Map",
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png",
		Attribution: "Map tiles by CartoDB, under CC BY 3.0. Data by OpenStreetMap, under ODbL.",
	},
	{
		Name:        "Satellite",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, i-cubed, USDA, USGS, AEX, GeoEye, Getmapping, Aerogrid, IGN, IGP, UPR-EGP, and the GIS User Community",
	},
}

type mapMarker struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Tooltip   string  `json:"tooltip"`
	Popup     string  `json:"popup"`
	Style     Style   `json:"style"`
}

type mapLayer struct {
	Name    string      `json:"name"`
	Show    bool        `json:"show"`
	Markers []mapMarker `json:"markers"`
}

type mapData struct {
	Center     [2]float64  `json:"center"`
	Zoom       int         `json:"zoom"`
	BaseLayers []tileLayer `json:"base_layers"`
	Layers     []mapLayer  `json:"layers"`
}

type pageData struct {
	Title string
	Map   mapData
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/Leaflet.awesome-markers/2.0.2/leaflet.awesome-markers.css">
<link rel="stylesheet" href="https://netdna.bootstrapcdn.com/bootstrap/3.0.0/css/bootstrap-glyphicons.css">
<style>html, body, #map { height: 100%; width: 100%; margin: 0; padding: 0; }</style>
</head>
<body>
<div id="map"></div>
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://cdnjs.cloudflare.com/ajax/libs/Leaflet.awesome-markers/2.0.2/leaflet.awesome-markers.js"></script>
<script>
(function () {
  var data = {{.Map}};
  var map = L.map("map").setView(data.center, data.zoom);
  var bases = {};
  data.base_layers.forEach(function (layer, i) {
    var tiles = L.tileLayer(layer.url, { attribution: layer.attribution, maxZoom: 18 });
    if (i === 0) { tiles.addTo(map); }
    bases[layer.name] = tiles;
  });
  var overlays = {};
  data.layers.forEach(function (layer) {
    var group = L.featureGroup();
    layer.markers.forEach(function (m) {
      var icon = L.AwesomeMarkers.icon({ icon: m.style.icon, markerColor: m.style.color, prefix: "glyphicon" });
      L.marker([m.lat, m.lon], { icon: icon }).bindPopup(m.popup).bindTooltip(m.tooltip).addTo(group);
    });
    if (layer.show) { group.addTo(map); }
    overlays[layer.name] = group;
  });
  L.control.layers(bases, overlays).addTo(map);
})();
</script>
</body>
</html>
`))

// RenderMap produces a standalone Leaflet page with one toggleable layer per
// category. Points of unknown type go to a hidden "Unknown Category" layer.
func RenderMap(q Query, points []PointOfInterest) ([]byte, error) {
	byCategory := make(map[string][]mapMarker, len(Categories)+1)
	for _, p := range points {
		style, known := StyleFor(p.Category)
		layer := p.Category
		if !known {
			layer = UnknownCategory
		}
		byCategory[layer] = append(byCategory[layer], mapMarker{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Tooltip:   html.EscapeString(p.Name),
			Popup:     popupHTML(p),
			Style:     style,
		})
	}

	layers := make([]mapLayer, 0, len(Categories)+1)
	for _, name := range Categories {
		layers = append(layers, mapLayer{Name: name, Show: true, Markers: nonNil(byCategory[name])})
	}
	if unknown := byCategory[UnknownCategory]; len(unknown) > 0 {
		layers = append(layers, mapLayer{Name: UnknownCategory, Show: false, Markers: unknown})
	}

	data := pageData{
		Title: fmt.Sprintf("Adventures near %s", q.Center),
		Map: mapData{
			Center:     [2]float64{q.Center.Latitude, q.Center.Longitude},
			Zoom:       q.ZoomLevel(),
			BaseLayers: baseLayers,
			Layers:     layers,
		},
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, data); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindDomain, "adventure.render_map", "failed to render adventure map", err)
	}
	return buf.Bytes(), nil
}

func popupHTML(p PointOfInterest) string {
	return fmt.Sprintf("<b>%s</b><br>Type: %s<br>Lat: %.4f, Lon: %.4f",
		html.EscapeString(p.Name), html.EscapeString(p.Category), p.Latitude, p.Longitude)
}

func nonNil(m []mapMarker) []mapMarker {
	if m == nil {
		return []mapMarker{}
	}
	return m
}
