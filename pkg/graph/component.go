package graph

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // byte is sufficient; max rank ~30 for realistic graphs
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// LargestComponent returns the set of nodes belonging to the largest
// weakly connected component (treating the directed graph as undirected).
// Ties go to the component containing the lowest node index.
func LargestComponent(g *Graph) *roaring.Bitmap {
	nodes := roaring.New()
	if g.NumNodes == 0 {
		return nodes
	}

	uf := NewUnionFind(g.NumNodes)
	for e := uint32(0); e < g.NumEdges; e++ {
		uf.Union(g.Tail[e], g.Head[e])
	}

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.Find(i) == bestRoot {
			nodes.Add(i)
		}
	}
	return nodes
}

// FilterToComponent creates a new graph containing only the nodes in keep.
// Kept nodes are renumbered densely in ascending order of their old index,
// so the relative order of edges is preserved.
func FilterToComponent(g *Graph, keep *roaring.Bitmap) (*Graph, error) {
	if keep.IsEmpty() {
		return New(Input{Offset: []int64{0}})
	}

	// Rank(x) counts kept indices <= x, so Rank-1 is x's new dense index.
	newIndex := func(old uint32) int64 { return int64(keep.Rank(old)) - 1 }

	nodes := make([]Node, 0, keep.GetCardinality())
	offset := make([]int64, 1, keep.GetCardinality()+1)
	var ways []Way

	it := keep.Iterator()
	for it.HasNext() {
		u := it.Next()
		if u >= g.NumNodes {
			break
		}
		nodes = append(nodes, Node{Lat: g.NodeLat[u], Lon: g.NodeLon[u]})

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if !keep.Contains(v) {
				continue
			}
			ways = append(ways, Way{
				Source: newIndex(u),
				Target: newIndex(v),
				Weight: int64(g.Weight[e]),
				Kind:   int64(g.Kind[e]),
			})
		}
		offset = append(offset, int64(len(ways)))
	}

	return New(Input{Nodes: nodes, Ways: ways, Offset: offset})
}
