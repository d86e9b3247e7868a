package routing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"road_router/pkg/graph"
)

// ErrUnreachable is returned when the destination cannot be reached from the source.
var ErrUnreachable = errors.New("destination unreachable")

// cancelCheckInterval is the number of settled nodes between context checks.
const cancelCheckInterval = 1024

// Path is a shortest path as node indices from source to destination.
type Path struct {
	Nodes []uint32
	Cost  uint64
}

// Dijkstra runs single-pair shortest path queries against one graph.
// It is safe for concurrent use; each query draws private state from a pool.
type Dijkstra struct {
	g     *graph.Graph
	state sync.Pool
}

// NewDijkstra creates a search engine over g.
func NewDijkstra(g *graph.Graph) *Dijkstra {
	d := &Dijkstra{g: g}
	d.state.New = func() any { return newQueryState(g.NumNodes) }
	return d
}

// FindPath returns the minimum-cost path from source to destination under
// cost. A nil cost uses the stored edge weights.
func (d *Dijkstra) FindPath(ctx context.Context, source, destination uint32, cost CostFunc) (Path, error) {
	g := d.g
	if source >= g.NumNodes || destination >= g.NumNodes {
		return Path{}, fmt.Errorf("find path %d->%d: %w", source, destination, graph.ErrIndexOutOfRange)
	}
	if cost == nil {
		cost = WeightCost(g)
	}

	qs := d.state.Get().(*queryState)
	defer func() {
		qs.reset()
		d.state.Put(qs)
	}()

	qs.set(source, 0, noNode)
	qs.pq.Push(source, 0)

	settled := 0
	for qs.pq.Len() > 0 {
		settled++
		if settled%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Path{}, err
			}
		}

		item := qs.pq.Pop()
		u, du := item.Node, item.Dist

		if u == destination {
			return Path{Nodes: qs.pathTo(destination), Cost: du}, nil
		}

		if du > qs.dist[u] {
			continue // stale entry
		}

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			c, ok := cost(e)
			if !ok {
				continue
			}
			v := g.Head[e]
			newDist := du + c
			if newDist < qs.dist[v] {
				qs.set(v, newDist, u)
				qs.pq.Push(v, newDist)
			}
		}
	}

	return Path{}, ErrUnreachable
}

// pathTo walks predecessor links back from node and reverses the result.
func (qs *queryState) pathTo(node uint32) []uint32 {
	var path []uint32
	for n := node; n != noNode; n = qs.pred[n] {
		path = append(path, n)
	}
	slices.Reverse(path)
	return path
}
