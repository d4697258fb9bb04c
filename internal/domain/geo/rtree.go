package geo

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 0.0001
	minChildren = 4
	maxChildren = 16
	dimensions  = 2
)

type indexedItem struct {
	pos  int
	at   Coordinate
	rect *rtreego.Rect
}

func (it *indexedItem) Bounds() *rtreego.Rect {
	return it.rect
}

// WithinRadius keeps the items whose location lies within radiusKm of center,
// preserving input order. Items with invalid or (0,0) coordinates are dropped.
func WithinRadius[T any](center Coordinate, radiusKm float64, items []T, locate func(T) Coordinate) []T {
	if len(items) == 0 || radiusKm <= 0 {
		return nil
	}

	candidates := make([]*indexedItem, 0, len(items))
	for i, item := range items {
		at := locate(item)
		if at.IsZero() || at.Validate() != nil {
			continue
		}
		candidates = append(candidates, &indexedItem{
			pos:  i,
			at:   at,
			rect: rtreego.Point{at.Latitude, at.Longitude}.ToRect(tolerance),
		})
	}

	hits := searchBox(center, radiusKm, candidates)

	positions := make([]int, 0, len(hits))
	for _, it := range hits {
		if Distance(center, it.at) <= radiusKm {
			positions = append(positions, it.pos)
		}
	}
	sort.Ints(positions)

	out := make([]T, 0, len(positions))
	for _, pos := range positions {
		out = append(out, items[pos])
	}
	return out
}

// searchBox narrows candidates with an R-tree bounding-box query. Boxes that
// touch a pole or the antimeridian fall back to the full candidate list.
func searchBox(center Coordinate, radiusKm float64, candidates []*indexedItem) []*indexedItem {
	latDeg := (radiusKm / EarthRadiusKm) * (180 / math.Pi)
	cosLat := math.Cos(center.Latitude * math.Pi / 180)
	if cosLat < 1e-6 {
		return candidates
	}
	lonDeg := latDeg / cosLat

	minLat, maxLat := center.Latitude-latDeg, center.Latitude+latDeg
	minLon, maxLon := center.Longitude-lonDeg, center.Longitude+lonDeg
	if minLat < -90 || maxLat > 90 || minLon < -180 || maxLon > 180 {
		return candidates
	}

	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, c := range candidates {
		tree.Insert(c)
	}

	bounds, err := rtreego.NewRect(rtreego.Point{minLat, minLon}, []float64{2 * latDeg, 2 * lonDeg})
	if err != nil {
		return candidates
	}

	results := tree.SearchIntersect(bounds)
	hits := make([]*indexedItem, 0, len(results))
	for _, r := range results {
		if it, ok := r.(*indexedItem); ok {
			hits = append(hits, it)
		}
	}
	return hits
}
