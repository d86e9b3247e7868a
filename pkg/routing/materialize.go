package routing

import (
	"fmt"

	"road_router/pkg/graph"
)

// ToCoordinates maps a node-index path to node positions, preserving order.
// Every index is checked before any output is produced.
func ToCoordinates(g *graph.Graph, nodes []uint32) ([]graph.Node, error) {
	for i, n := range nodes {
		if n >= g.NumNodes {
			return nil, fmt.Errorf("path[%d]=%d: %w", i, n, graph.ErrIndexOutOfRange)
		}
	}
	coords := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		coords[i] = graph.Node{Lat: g.NodeLat[n], Lon: g.NodeLon[n]}
	}
	return coords, nil
}
