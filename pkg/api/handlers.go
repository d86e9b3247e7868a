package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"

	"road_router/pkg/graph"
	"road_router/pkg/routing"
)

// maxRouteBody bounds the size of a route request body.
const maxRouteBody = 1024

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router    routing.Router
	g         *graph.Graph
	neighbors *graph.NeighborIndex
	stats     StatsResponse
	logger    *slog.Logger
}

// NewHandlers creates handlers answering route queries with router and
// edge/neighbor lookups against g.
func NewHandlers(router routing.Router, g *graph.Graph, stats StatsResponse, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		router:    router,
		g:         g,
		neighbors: graph.NewNeighborIndex(g),
		stats:     stats,
		logger:    logger,
	}
}

// NewStats summarizes g for the stats endpoint.
func NewStats(g *graph.Graph, locator string) StatsResponse {
	s := StatsResponse{NumNodes: g.NumNodes, NumEdges: g.NumEdges, Locator: locator}
	for _, k := range g.Kind {
		if k&graph.KindCar != 0 {
			s.CarEdges++
		}
		if k&graph.KindBike != 0 {
			s.BikeEdges++
		}
		if k&graph.KindFoot != 0 {
			s.FootEdges++
		}
	}
	return s
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRouteBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Validate coordinates.
	if err := validateCoord(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validateCoord(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}
	kinds, err := parseKinds(req.Kinds)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "kinds")
		return
	}
	profile := routing.Profile{Kinds: kinds, UseDistance: req.UseDistance}

	// Route.
	result, err := h.router.Route(r.Context(),
		routing.LatLng{Lat: req.Start.Lat, Lng: req.Start.Lng},
		routing.LatLng{Lat: req.End.Lat, Lng: req.End.Lng},
		profile)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrUnreachable), errors.Is(err, graph.ErrEmptyGraph):
			writeError(w, http.StatusNotFound, "no_route_found", "")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			h.logger.Error("route failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	h.logger.Debug("route query",
		"start", req.Start, "end", req.End,
		"start_node", result.StartNode, "end_node", result.EndNode,
		"nodes", result.Nodes, "cost", result.Cost)

	// Build response.
	resp := RouteResponse{
		Cost:           result.Cost,
		DistanceMeters: result.TotalDistanceMeters,
		StartNode:      result.StartNode,
		EndNode:        result.EndNode,
		Nodes:          result.Nodes,
		Path:           make([]LatLngJSON, len(result.Geometry)),
	}
	for i, ll := range result.Geometry {
		resp.Path[i] = LatLngJSON{Lat: ll.Lat, Lng: ll.Lng}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleEdge handles GET /api/v1/edge?source=&target=.
func (h *Handlers) HandleEdge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source, err := parseNode(q.Get("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "source")
		return
	}
	target, err := parseNode(q.Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "target")
		return
	}

	weight, err := h.g.EdgeWeight(source, target)
	switch {
	case errors.Is(err, graph.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, "node_not_found", "")
		return
	case errors.Is(err, graph.ErrNoDirectEdge):
		writeError(w, http.StatusNotFound, "no_direct_edge", "")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, EdgeResponse{Source: source, Target: target, Weight: weight})
}

// HandleNeighbors handles GET /api/v1/nodes/{id}/neighbors.
func (h *Handlers) HandleNeighbors(w http.ResponseWriter, r *http.Request) {
	node, err := parseNode(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id")
		return
	}
	loc, err := h.g.Node(node)
	if err != nil {
		writeError(w, http.StatusNotFound, "node_not_found", "")
		return
	}

	resp := NeighborsResponse{Node: node, Location: LatLngJSON{Lat: loc.Lat, Lng: loc.Lon}}
	ni := h.neighbors
	for _, step := range []struct {
		dst *[]uint32
		fn  func(uint32) ([]uint32, error)
	}{
		{&resp.OutgoingEdges, ni.OutgoingEdges},
		{&resp.IncomingEdges, ni.IncomingEdges},
		{&resp.Outgoing, ni.OutgoingNeighbors},
		{&resp.Incoming, ni.IncomingNeighbors},
		{&resp.All, ni.AllNeighbors},
	} {
		if *step.dst, err = step.fn(node); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "")
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats)
}

func validateCoord(ll LatLngJSON) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

// parseKinds folds travel mode names into a kind mask. No names admits all.
func parseKinds(names []string) (graph.Kind, error) {
	if len(names) == 0 {
		return graph.KindAny, nil
	}
	var k graph.Kind
	for _, name := range names {
		switch name {
		case "car":
			k |= graph.KindCar
		case "bike":
			k |= graph.KindBike
		case "foot":
			k |= graph.KindFoot
		default:
			return 0, errors.New("unknown kind " + strconv.Quote(name))
		}
	}
	return k, nil
}

func parseNode(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}
