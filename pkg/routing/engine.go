package routing

import (
	"context"
	"fmt"
	"log/slog"

	"road_router/pkg/geo"
	"road_router/pkg/graph"
)

// LatLng represents a geographic coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// RouteResult is the output of a route query.
type RouteResult struct {
	StartNode           uint32
	EndNode             uint32
	Cost                uint64
	TotalDistanceMeters float64
	Nodes               []uint32
	Geometry            []LatLng
}

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end LatLng, p Profile) (*RouteResult, error)
}

// Engine implements Router with a nearest-node locator and plain Dijkstra.
type Engine struct {
	g        *graph.Graph
	locator  Locator
	dijkstra *Dijkstra
	lengths  []uint32
	logger   *slog.Logger
}

// NewEngine creates a routing engine over the shared graph g.
func NewEngine(g *graph.Graph, locator Locator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		g:        g,
		locator:  locator,
		dijkstra: NewDijkstra(g),
		lengths:  EdgeLengths(g),
		logger:   logger,
	}
}

// Route computes the shortest path between the nodes nearest to start and end.
func (e *Engine) Route(ctx context.Context, start, end LatLng, p Profile) (*RouteResult, error) {
	// Step 1: Resolve coordinates to graph nodes.
	startNode, err := e.locator.Nearest(start.Lat, start.Lng)
	if err != nil {
		return nil, fmt.Errorf("locate start: %w", err)
	}
	endNode, err := e.locator.Nearest(end.Lat, end.Lng)
	if err != nil {
		return nil, fmt.Errorf("locate end: %w", err)
	}

	// Step 2: Search.
	path, err := e.dijkstra.FindPath(ctx, startNode, endNode, NewCostFunc(e.g, e.lengths, p))
	if err != nil {
		e.logger.Debug("route failed", "start_node", startNode, "end_node", endNode, "error", err)
		return nil, err
	}

	// Step 3: Materialize.
	coords, err := ToCoordinates(e.g, path.Nodes)
	if err != nil {
		return nil, err
	}
	geometry := make([]LatLng, len(coords))
	var meters float64
	for i, c := range coords {
		geometry[i] = LatLng{Lat: c.Lat, Lng: c.Lon}
		if i > 0 {
			meters += geo.Haversine(coords[i-1].Lat, coords[i-1].Lon, c.Lat, c.Lon)
		}
	}

	e.logger.Debug("route",
		"start", start, "end", end,
		"start_node", startNode, "end_node", endNode,
		"hops", len(path.Nodes)-1, "cost", path.Cost)

	return &RouteResult{
		StartNode:           startNode,
		EndNode:             endNode,
		Cost:                path.Cost,
		TotalDistanceMeters: meters,
		Nodes:               path.Nodes,
		Geometry:            geometry,
	}, nil
}
