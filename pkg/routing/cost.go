package routing

import (
	"math"

	"road_router/pkg/geo"
	"road_router/pkg/graph"
)

// CostFunc returns the cost of traversing edge, or ok=false when the edge
// may not be used at all.
type CostFunc func(edge uint32) (cost uint64, ok bool)

// Profile selects how edges are costed.
type Profile struct {
	Kinds       graph.Kind // edges must share a bit with Kinds; KindAny admits all
	UseDistance bool       // cost by geometric length instead of stored weight
}

// DefaultProfile admits every edge at its stored weight.
var DefaultProfile = Profile{Kinds: graph.KindAny}

// EdgeLengths returns the haversine length of every edge in whole meters.
func EdgeLengths(g *graph.Graph) []uint32 {
	lengths := make([]uint32, g.NumEdges)
	for e := uint32(0); e < g.NumEdges; e++ {
		u, v := g.Tail[e], g.Head[e]
		m := geo.Haversine(g.NodeLat[u], g.NodeLon[u], g.NodeLat[v], g.NodeLon[v])
		lengths[e] = uint32(min(math.Round(m), math.MaxUint32))
	}
	return lengths
}

// WeightCost uses each edge's stored weight unchanged.
func WeightCost(g *graph.Graph) CostFunc {
	return func(e uint32) (uint64, bool) {
		return uint64(g.Weight[e]), true
	}
}

// NewCostFunc builds the cost function for p. lengths is only consulted
// when p.UseDistance is set and must then come from EdgeLengths(g).
func NewCostFunc(g *graph.Graph, lengths []uint32, p Profile) CostFunc {
	base := g.Weight
	if p.UseDistance {
		base = lengths
	}
	if p.Kinds == graph.KindAny {
		return func(e uint32) (uint64, bool) {
			return uint64(base[e]), true
		}
	}
	return func(e uint32) (uint64, bool) {
		if g.Kind[e]&p.Kinds == 0 {
			return 0, false
		}
		return uint64(base[e]), true
	}
}
