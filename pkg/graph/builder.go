package graph

import (
	"math"
	"sort"

	"github.com/paulmach/osm"

	osmparser "road_router/pkg/osm"
)

// Way is one directed edge of the construction input. Fields are signed so
// that decoded values can be range-checked before they are narrowed.
type Way struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
	Weight int64 `json:"weight"`
	Kind   int64 `json:"kind"`
}

// Input is the record a loader hands to New.
type Input struct {
	Nodes  []Node
	Ways   []Way
	Offset []int64
}

// New validates in and returns the immutable CSR graph.
// Ways must already be grouped by source so that Offset bounds them exactly.
func New(in Input) (*Graph, error) {
	if uint64(len(in.Nodes)) >= math.MaxUint32 {
		return nil, constructionErr("nodes", -1, "too many nodes: %d", len(in.Nodes))
	}
	if uint64(len(in.Ways)) >= math.MaxUint32 {
		return nil, constructionErr("ways", -1, "too many ways: %d", len(in.Ways))
	}
	numNodes := uint32(len(in.Nodes))
	numEdges := uint32(len(in.Ways))

	if len(in.Offset) != len(in.Nodes)+1 {
		return nil, constructionErr("offset", -1, "length %d != len(nodes)+1 = %d", len(in.Offset), len(in.Nodes)+1)
	}

	nodeLat := make([]float64, numNodes)
	nodeLon := make([]float64, numNodes)
	for i, n := range in.Nodes {
		if !validCoord(n) {
			return nil, constructionErr("nodes", i, "invalid coordinate (%v, %v)", n.Lat, n.Lon)
		}
		nodeLat[i] = n.Lat
		nodeLon[i] = n.Lon
	}

	firstOut := make([]uint32, numNodes+1)
	for i, o := range in.Offset {
		if o < 0 || o > int64(numEdges) {
			return nil, constructionErr("offset", i, "value %d outside [0, %d]", o, numEdges)
		}
		firstOut[i] = uint32(o)
	}

	g := &Graph{
		NumNodes: numNodes,
		NumEdges: numEdges,
		FirstOut: firstOut,
		Tail:     make([]uint32, numEdges),
		Head:     make([]uint32, numEdges),
		Weight:   make([]uint32, numEdges),
		Kind:     make([]Kind, numEdges),
		NodeLat:  nodeLat,
		NodeLon:  nodeLon,
	}

	for i, w := range in.Ways {
		if w.Source < 0 || w.Source >= int64(numNodes) {
			return nil, constructionErr("ways", i, "source %d outside [0, %d)", w.Source, numNodes)
		}
		if w.Target < 0 || w.Target >= int64(numNodes) {
			return nil, constructionErr("ways", i, "target %d outside [0, %d)", w.Target, numNodes)
		}
		if w.Weight < 0 {
			return nil, constructionErr("ways", i, "negative weight %d", w.Weight)
		}
		if w.Weight > math.MaxUint32 {
			return nil, constructionErr("ways", i, "weight %d overflows uint32", w.Weight)
		}
		if w.Kind < 0 || w.Kind > math.MaxUint8 {
			return nil, constructionErr("ways", i, "kind %d outside [0, 255]", w.Kind)
		}
		g.Tail[i] = uint32(w.Source)
		g.Head[i] = uint32(w.Target)
		g.Weight[i] = uint32(w.Weight)
		g.Kind[i] = Kind(w.Kind)
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromWays sorts ways by source, derives the offset array and calls New.
// It is the entry point for inputs that carry no offset of their own.
func FromWays(nodes []Node, ways []Way) (*Graph, error) {
	sorted := make([]Way, len(ways))
	copy(sorted, ways)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Target < sorted[j].Target
	})

	offset := make([]int64, len(nodes)+1)
	for _, w := range sorted {
		// Out-of-range sources are left for New to report.
		if w.Source < 0 || w.Source >= int64(len(nodes)) {
			return New(Input{Nodes: nodes, Ways: sorted, Offset: offset})
		}
		offset[w.Source+1]++
	}
	// Prefix sum.
	for i := 1; i <= len(nodes); i++ {
		offset[i] += offset[i-1]
	}

	return New(Input{Nodes: nodes, Ways: sorted, Offset: offset})
}

// Build creates a CSR Graph from parsed OSM edges.
func Build(result *osmparser.ParseResult) (*Graph, error) {
	edges := result.Edges
	if len(edges) == 0 {
		return New(Input{Offset: []int64{0}})
	}

	// Collect all unique node IDs and build a compact mapping.
	nodeIdx := make(map[osm.NodeID]int64)
	var nodes []Node

	addNode := func(id osm.NodeID) int64 {
		if idx, ok := nodeIdx[id]; ok {
			return idx
		}
		idx := int64(len(nodes))
		nodeIdx[id] = idx
		nodes = append(nodes, Node{Lat: result.NodeLat[id], Lon: result.NodeLon[id]})
		return idx
	}

	ways := make([]Way, len(edges))
	for i, e := range edges {
		ways[i] = Way{
			Source: addNode(e.FromNodeID),
			Target: addNode(e.ToNodeID),
			Weight: int64(e.Weight),
			Kind:   int64(e.Kind),
		}
	}

	return FromWays(nodes, ways)
}

func validCoord(n Node) bool {
	if math.IsNaN(n.Lat) || math.IsNaN(n.Lon) || math.IsInf(n.Lat, 0) || math.IsInf(n.Lon, 0) {
		return false
	}
	return n.Lat >= -90 && n.Lat <= 90 && n.Lon >= -180 && n.Lon <= 180
}

// validate checks CSR invariants on a fully populated graph.
func (g *Graph) validate() error {
	if uint32(len(g.FirstOut)) != g.NumNodes+1 {
		return constructionErr("offset", -1, "length %d != NumNodes+1 = %d", len(g.FirstOut), g.NumNodes+1)
	}
	if g.FirstOut[0] != 0 {
		return constructionErr("offset", 0, "first offset is %d, want 0", g.FirstOut[0])
	}
	if g.FirstOut[g.NumNodes] != g.NumEdges {
		return constructionErr("offset", int(g.NumNodes), "last offset %d != number of ways %d", g.FirstOut[g.NumNodes], g.NumEdges)
	}
	for i := uint32(1); i <= g.NumNodes; i++ {
		if g.FirstOut[i] < g.FirstOut[i-1] {
			return constructionErr("offset", int(i), "not monotonic: %d < %d", g.FirstOut[i], g.FirstOut[i-1])
		}
	}
	if uint32(len(g.Tail)) != g.NumEdges || uint32(len(g.Head)) != g.NumEdges ||
		uint32(len(g.Weight)) != g.NumEdges || uint32(len(g.Kind)) != g.NumEdges {
		return constructionErr("ways", -1, "edge column lengths disagree with %d edges", g.NumEdges)
	}
	if uint32(len(g.NodeLat)) != g.NumNodes || uint32(len(g.NodeLon)) != g.NumNodes {
		return constructionErr("nodes", -1, "coordinate column lengths disagree with %d nodes", g.NumNodes)
	}
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if g.Tail[e] != u {
				return constructionErr("ways", int(e), "source %d lies in the offset range of node %d", g.Tail[e], u)
			}
			if g.Head[e] >= g.NumNodes {
				return constructionErr("ways", int(e), "target %d outside [0, %d)", g.Head[e], g.NumNodes)
			}
		}
	}
	return nil
}
