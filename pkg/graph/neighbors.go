package graph

import (
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ParallelThreshold is the edge-range size above which neighbor
// dereferencing fans out across goroutines.
const ParallelThreshold = 4096

// NeighborIndex adds a reverse CSR to a Graph so that incoming edges can be
// enumerated in O(in-degree). It only reads the graph it was built from.
type NeighborIndex struct {
	g       *Graph
	FirstIn []uint32 // len: NumNodes + 1; FirstIn[v]..FirstIn[v+1] index InEdge
	InEdge  []uint32 // len: NumEdges; edge ids grouped by target, ascending within a group
}

// NewNeighborIndex builds the reverse adjacency of g by counting sort.
func NewNeighborIndex(g *Graph) *NeighborIndex {
	firstIn := make([]uint32, g.NumNodes+1)
	for _, v := range g.Head {
		firstIn[v+1]++
	}
	for i := uint32(1); i <= g.NumNodes; i++ {
		firstIn[i] += firstIn[i-1]
	}

	inEdge := make([]uint32, g.NumEdges)
	pos := make([]uint32, g.NumNodes)
	copy(pos, firstIn[:g.NumNodes])
	for e := uint32(0); e < g.NumEdges; e++ {
		v := g.Head[e]
		inEdge[pos[v]] = e
		pos[v]++
	}

	return &NeighborIndex{g: g, FirstIn: firstIn, InEdge: inEdge}
}

func (ni *NeighborIndex) check(node uint32) error {
	if node >= ni.g.NumNodes {
		return fmt.Errorf("node %d: %w", node, ErrIndexOutOfRange)
	}
	return nil
}

// OutgoingEdges returns the ids of edges whose source is node.
func (ni *NeighborIndex) OutgoingEdges(node uint32) ([]uint32, error) {
	if err := ni.check(node); err != nil {
		return nil, err
	}
	start, end := ni.g.EdgesFrom(node)
	ids := make([]uint32, 0, end-start)
	for e := start; e < end; e++ {
		ids = append(ids, e)
	}
	return ids, nil
}

// IncomingEdges returns the ids of edges whose target is node.
func (ni *NeighborIndex) IncomingEdges(node uint32) ([]uint32, error) {
	if err := ni.check(node); err != nil {
		return nil, err
	}
	return slices.Clone(ni.InEdge[ni.FirstIn[node]:ni.FirstIn[node+1]]), nil
}

// OutgoingNeighbors returns the distinct targets of node's outgoing edges, ascending.
func (ni *NeighborIndex) OutgoingNeighbors(node uint32) ([]uint32, error) {
	ids, err := ni.OutgoingEdges(node)
	if err != nil {
		return nil, err
	}
	return dedup(ni.endpoints(ids, ni.g.Head)), nil
}

// IncomingNeighbors returns the distinct sources of node's incoming edges, ascending.
func (ni *NeighborIndex) IncomingNeighbors(node uint32) ([]uint32, error) {
	ids, err := ni.IncomingEdges(node)
	if err != nil {
		return nil, err
	}
	return dedup(ni.endpoints(ids, ni.g.Tail)), nil
}

// AllNeighbors returns the sorted union of incoming and outgoing neighbors.
func (ni *NeighborIndex) AllNeighbors(node uint32) ([]uint32, error) {
	out, err := ni.OutgoingNeighbors(node)
	if err != nil {
		return nil, err
	}
	in, err := ni.IncomingNeighbors(node)
	if err != nil {
		return nil, err
	}
	return dedup(append(out, in...)), nil
}

// endpoints maps edge ids through column (Head or Tail) into a new slice.
// Large inputs are split into disjoint chunks filled concurrently.
func (ni *NeighborIndex) endpoints(ids []uint32, column []uint32) []uint32 {
	out := make([]uint32, len(ids))
	if len(ids) <= ParallelThreshold {
		for i, e := range ids {
			out[i] = column[e]
		}
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(ids) + workers - 1) / workers

	var g errgroup.Group
	for lo := 0; lo < len(ids); lo += chunk {
		hi := min(lo+chunk, len(ids))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				out[i] = column[ids[i]]
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return out
}

func dedup(s []uint32) []uint32 {
	slices.Sort(s)
	return slices.Compact(s)
}
