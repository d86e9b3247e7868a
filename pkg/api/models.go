package api

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start       LatLngJSON `json:"start"`
	End         LatLngJSON `json:"end"`
	Kinds       []string   `json:"kinds,omitempty"` // any of "car", "bike", "foot"; empty admits all
	UseDistance bool       `json:"use_distance,omitempty"`
}

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Cost           uint64       `json:"cost"`
	DistanceMeters float64      `json:"distance_meters"`
	StartNode      uint32       `json:"start_node"`
	EndNode        uint32       `json:"end_node"`
	Nodes          []uint32     `json:"nodes"`
	Path           []LatLngJSON `json:"path"`
}

// EdgeResponse is the JSON response for GET /api/v1/edge.
type EdgeResponse struct {
	Source uint32 `json:"source"`
	Target uint32 `json:"target"`
	Weight uint32 `json:"weight"`
}

// NeighborsResponse is the JSON response for GET /api/v1/nodes/{id}/neighbors.
type NeighborsResponse struct {
	Node          uint32     `json:"node"`
	Location      LatLngJSON `json:"location"`
	OutgoingEdges []uint32   `json:"outgoing_edges"`
	IncomingEdges []uint32   `json:"incoming_edges"`
	Outgoing      []uint32   `json:"outgoing"`
	Incoming      []uint32   `json:"incoming"`
	All           []uint32   `json:"all"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes  uint32 `json:"num_nodes"`
	NumEdges  uint32 `json:"num_edges"`
	CarEdges  uint32 `json:"car_edges"`
	BikeEdges uint32 `json:"bike_edges"`
	FootEdges uint32 `json:"foot_edges"`
	Locator   string `json:"locator"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
