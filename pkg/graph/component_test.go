package graph

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	for i := range uint32(5) {
		assert.Equal(t, i, uf.Find(i), "initially every element is its own root")
	}

	assert.True(t, uf.Union(0, 1))
	assert.Equal(t, uf.Find(0), uf.Find(1))

	uf.Union(2, 3)
	assert.Equal(t, uf.Find(2), uf.Find(3))
	assert.NotEqual(t, uf.Find(0), uf.Find(2))

	uf.Union(1, 3)
	assert.Equal(t, uf.Find(0), uf.Find(3))
	assert.False(t, uf.Union(0, 2), "already in the same set")
}

// twoComponents: 0 <-> 1 <-> 2 and 3 -> 4.
func twoComponents(t *testing.T) *Graph {
	t.Helper()
	g, err := FromWays(
		[]Node{{1.0, 103.0}, {1.1, 103.1}, {1.2, 103.2}, {2.0, 104.0}, {2.1, 104.1}},
		[]Way{
			{Source: 0, Target: 1, Weight: 100, Kind: 1},
			{Source: 1, Target: 0, Weight: 100, Kind: 1},
			{Source: 1, Target: 2, Weight: 200, Kind: 2},
			{Source: 2, Target: 1, Weight: 200, Kind: 2},
			{Source: 3, Target: 4, Weight: 300, Kind: 1},
		},
	)
	require.NoError(t, err)
	return g
}

func TestLargestComponent(t *testing.T) {
	nodes := LargestComponent(twoComponents(t))
	assert.Equal(t, []uint32{0, 1, 2}, nodes.ToArray())
}

func TestFilterToComponent(t *testing.T) {
	g := twoComponents(t)

	// Keep the second component plus node 1 to exercise renumbering.
	keep := roaring.BitmapOf(1, 3, 4)
	filtered, err := FilterToComponent(g, keep)
	require.NoError(t, err)

	require.Equal(t, uint32(3), filtered.NumNodes)
	require.Equal(t, uint32(1), filtered.NumEdges, "only 3->4 has both ends kept")
	assert.Equal(t, []uint32{0, 0, 1, 1}, filtered.FirstOut)
	assert.Equal(t, uint32(1), filtered.Tail[0])
	assert.Equal(t, uint32(2), filtered.Head[0])
	assert.Equal(t, uint32(300), filtered.Weight[0])
	assert.Equal(t, 2.0, filtered.NodeLat[1])
}

func TestFilterToLargestComponent(t *testing.T) {
	g := twoComponents(t)
	filtered, err := FilterToComponent(g, LargestComponent(g))
	require.NoError(t, err)

	assert.Equal(t, uint32(3), filtered.NumNodes)
	assert.Equal(t, uint32(4), filtered.NumEdges)

	var total uint32
	for _, w := range filtered.Weight {
		total += w
	}
	assert.Equal(t, uint32(600), total)
	assert.Equal(t, []Kind{1, 1, 2, 2}, filtered.Kind)
}

func TestFilterToComponentEmptyGraph(t *testing.T) {
	g, err := New(Input{Offset: []int64{0}})
	require.NoError(t, err)

	nodes := LargestComponent(g)
	assert.True(t, nodes.IsEmpty())

	filtered, err := FilterToComponent(g, nodes)
	require.NoError(t, err)
	assert.Zero(t, filtered.NumNodes)
	assert.Zero(t, filtered.NumEdges)
}
