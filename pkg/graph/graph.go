package graph

import "fmt"

// Kind is a bitmask of the travel modes allowed on an edge.
type Kind uint8

const (
	KindCar Kind = 1 << iota
	KindBike
	KindFoot

	// KindAny matches every edge regardless of its mask.
	KindAny Kind = 0xff
)

// Node is a graph vertex position in degrees. Its identity is its index.
type Node struct {
	Lat float64
	Lon float64
}

// Graph represents a directed graph in CSR (Compressed Sparse Row) format.
// It is immutable after New returns and safe for concurrent readers.
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32  // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are edges from node i
	Tail     []uint32  // len: NumEdges; source node for each edge
	Head     []uint32  // len: NumEdges; target node for each edge
	Weight   []uint32  // len: NumEdges; non-negative cost
	Kind     []Kind    // len: NumEdges
	NodeLat  []float64 // len: NumNodes
	NodeLon  []float64 // len: NumNodes
}

// EdgesFrom returns the range of edge indices for edges originating from node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// EdgeWeight returns the weight of the first edge source→target.
// ErrNoDirectEdge is returned when the nodes are not directly connected.
func (g *Graph) EdgeWeight(source, target uint32) (uint32, error) {
	if source >= g.NumNodes || target >= g.NumNodes {
		return 0, fmt.Errorf("edge %d->%d: %w", source, target, ErrIndexOutOfRange)
	}
	start, end := g.EdgesFrom(source)
	for e := start; e < end; e++ {
		if g.Head[e] == target {
			return g.Weight[e], nil
		}
	}
	return 0, ErrNoDirectEdge
}

// Node returns the coordinates of node i.
func (g *Graph) Node(i uint32) (Node, error) {
	if i >= g.NumNodes {
		return Node{}, fmt.Errorf("node %d: %w", i, ErrIndexOutOfRange)
	}
	return Node{Lat: g.NodeLat[i], Lon: g.NodeLon[i]}, nil
}
