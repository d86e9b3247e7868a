package routing

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_router/pkg/graph"
)

func nodesOnly(t testing.TB, nodes []graph.Node) *graph.Graph {
	t.Helper()
	g, err := graph.FromWays(nodes, nil)
	require.NoError(t, err)
	return g
}

func locators(g *graph.Graph) map[string]Locator {
	return map[string]Locator{
		"linear": NewLinearLocator(g),
		"rtree":  NewIndexedLocator(g),
	}
}

func TestNearestExactMatch(t *testing.T) {
	g := triangle(t)
	for name, l := range locators(g) {
		t.Run(name, func(t *testing.T) {
			for i := uint32(0); i < g.NumNodes; i++ {
				n, err := l.Nearest(g.NodeLat[i], g.NodeLon[i])
				require.NoError(t, err)
				assert.Equal(t, i, n)
			}
		})
	}
}

func TestNearestTieGoesToLowestIndex(t *testing.T) {
	// Nodes 1 and 2 sit at the same point; 0 and 3 are equidistant from the query.
	g := nodesOnly(t, []graph.Node{
		{Lat: 0, Lon: -1},
		{Lat: 5, Lon: 5},
		{Lat: 5, Lon: 5},
		{Lat: 0, Lon: 1},
	})
	for name, l := range locators(g) {
		t.Run(name, func(t *testing.T) {
			n, err := l.Nearest(0, 0)
			require.NoError(t, err)
			assert.Equal(t, uint32(0), n)

			n, err = l.Nearest(5, 5)
			require.NoError(t, err)
			assert.Equal(t, uint32(1), n)
		})
	}
}

func TestNearestEmptyGraph(t *testing.T) {
	g := nodesOnly(t, nil)
	for name, l := range locators(g) {
		t.Run(name, func(t *testing.T) {
			_, err := l.Nearest(1, 2)
			assert.ErrorIs(t, err, graph.ErrEmptyGraph)
		})
	}
}

func TestNearestFarQuery(t *testing.T) {
	// Both nodes lie more than 1000 km from the query.
	g := nodesOnly(t, []graph.Node{{Lat: 1.3, Lon: 103.8}, {Lat: 1.31, Lon: 103.81}})
	for name, l := range locators(g) {
		t.Run(name, func(t *testing.T) {
			n, err := l.Nearest(10, 110)
			require.NoError(t, err)
			assert.Equal(t, uint32(1), n)
		})
	}
}

func TestIndexedLocatorMatchesLinear(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 20; round++ {
		// Snap coordinates to a coarse grid so exact ties occur.
		nodes := make([]graph.Node, 300)
		for i := range nodes {
			nodes[i] = graph.Node{
				Lat: float64(rng.IntN(200)-100) / 100,
				Lon: float64(rng.IntN(200)-100) / 100,
			}
		}
		g := nodesOnly(t, nodes)
		linear, indexed := NewLinearLocator(g), NewIndexedLocator(g)

		for q := 0; q < 100; q++ {
			lat := rng.Float64()*4 - 2
			lon := rng.Float64()*4 - 2
			want, err := linear.Nearest(lat, lon)
			require.NoError(t, err)
			got, err := indexed.Nearest(lat, lon)
			require.NoError(t, err)
			assert.Equal(t, want, got, "round %d query (%f, %f)", round, lat, lon)
		}
	}
}

func TestIndexedLocatorNearPole(t *testing.T) {
	g := nodesOnly(t, []graph.Node{{Lat: 89.9, Lon: 0}, {Lat: 89.9, Lon: 180}, {Lat: 80, Lon: 90}})
	linear, indexed := NewLinearLocator(g), NewIndexedLocator(g)

	for _, q := range [][2]float64{{89.95, 170}, {89.99, -10}, {85, 90}} {
		want, err := linear.Nearest(q[0], q[1])
		require.NoError(t, err)
		got, err := indexed.Nearest(q[0], q[1])
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %v", q)
	}
}

func TestNewLocator(t *testing.T) {
	g := triangle(t)

	l, err := NewLocator(g, "")
	require.NoError(t, err)
	assert.IsType(t, &LinearLocator{}, l)

	l, err = NewLocator(g, "rtree")
	require.NoError(t, err)
	assert.IsType(t, &IndexedLocator{}, l)

	_, err = NewLocator(g, "kdtree")
	assert.Error(t, err)
}

func BenchmarkNearest(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	nodes := make([]graph.Node, 100_000)
	for i := range nodes {
		nodes[i] = graph.Node{Lat: 1.15 + rng.Float64()*0.33, Lon: 103.6 + rng.Float64()*0.5}
	}
	g := nodesOnly(b, nodes)

	for name, l := range locators(g) {
		b.Run(name, func(b *testing.B) {
			for b.Loop() {
				_, _ = l.Nearest(1.3521, 103.8198)
			}
		})
	}
}
