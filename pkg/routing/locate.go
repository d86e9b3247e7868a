package routing

import (
	"fmt"
	"math"

	"github.com/tidwall/rtree"

	"road_router/pkg/geo"
	"road_router/pkg/graph"
)

// Locator resolves a coordinate to the nearest graph node.
type Locator interface {
	Nearest(lat, lon float64) (uint32, error)
}

// NewLocator returns the locator named kind: "linear" (default) or "rtree".
func NewLocator(g *graph.Graph, kind string) (Locator, error) {
	switch kind {
	case "", "linear":
		return NewLinearLocator(g), nil
	case "rtree":
		return NewIndexedLocator(g), nil
	}
	return nil, fmt.Errorf("unknown locator %q", kind)
}

// LinearLocator scans every node. O(|nodes|) per lookup; fine for modest graphs.
type LinearLocator struct {
	g *graph.Graph
}

func NewLinearLocator(g *graph.Graph) *LinearLocator {
	return &LinearLocator{g: g}
}

// Nearest returns the node with the smallest haversine distance to
// (lat, lon). Ties go to the lowest index.
func (l *LinearLocator) Nearest(lat, lon float64) (uint32, error) {
	g := l.g
	if g.NumNodes == 0 {
		return 0, graph.ErrEmptyGraph
	}
	best := uint32(0)
	bestDist := math.Inf(1)
	for i := uint32(0); i < g.NumNodes; i++ {
		d := geo.Haversine(lat, lon, g.NodeLat[i], g.NodeLon[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, nil
}

// Initial half-width in degrees of the candidate search box. 0.01° ≈ 1.1 km.
const initialSearchDeg = 0.01

// IndexedLocator answers the same query as LinearLocator through an R-tree
// over node positions, so results (including tie-breaking) are identical.
type IndexedLocator struct {
	g      *graph.Graph
	tr     rtree.RTreeG[uint32]
	linear *LinearLocator
}

// NewIndexedLocator builds the R-tree over all node positions.
func NewIndexedLocator(g *graph.Graph) *IndexedLocator {
	l := &IndexedLocator{g: g, linear: NewLinearLocator(g)}
	for i := uint32(0); i < g.NumNodes; i++ {
		pt := [2]float64{g.NodeLon[i], g.NodeLat[i]}
		l.tr.Insert(pt, pt, i)
	}
	return l
}

// nearestSearch accumulates the best candidate seen so far.
type nearestSearch struct {
	g        *graph.Graph
	lat, lon float64
	best     uint32
	bestDist float64
}

func (s *nearestSearch) visit(_, _ [2]float64, i uint32) bool {
	d := geo.Haversine(s.lat, s.lon, s.g.NodeLat[i], s.g.NodeLon[i])
	if d < s.bestDist || (d == s.bestDist && i < s.best) {
		s.bestDist = d
		s.best = i
	}
	return true
}

// Nearest finds a candidate in a growing box around the query, then
// searches the bounding box of the spherical cap through that candidate,
// which contains every node at least as close.
func (l *IndexedLocator) Nearest(lat, lon float64) (uint32, error) {
	if l.g.NumNodes == 0 {
		return 0, graph.ErrEmptyGraph
	}

	s := &nearestSearch{g: l.g, lat: lat, lon: lon, best: noNode, bestDist: math.Inf(1)}
	for r := initialSearchDeg; r <= 360 && s.best == noNode; r *= 4 {
		l.tr.Search([2]float64{lon - r, lat - r}, [2]float64{lon + r, lat + r}, s.visit)
	}
	if s.best == noNode {
		return l.linear.Nearest(lat, lon)
	}

	// Pad for rounding so nodes at exactly bestDist are not lost.
	box, ok := geo.CapBounds(lat, lon, s.bestDist*(1+1e-9)+1e-3)
	if !ok {
		return l.linear.Nearest(lat, lon)
	}
	l.tr.Search([2]float64{box.MinLon, box.MinLat}, [2]float64{box.MaxLon, box.MaxLat}, s.visit)
	return s.best, nil
}
