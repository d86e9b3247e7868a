package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"road_router/pkg/geo"
)

// Travel-mode bits carried in RawEdge.Kind. They match graph.Kind.
const (
	ModeCar uint8 = 1 << iota
	ModeBike
	ModeFoot
)

// RawEdge represents a directed edge parsed from OSM data.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	Weight     uint32 // travel time in milliseconds at the way's nominal speed
	Kind       uint8  // travel-mode bitmask
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

// highwaySpeeds maps routable highway values to a nominal speed in km/h.
var highwaySpeeds = map[string]float64{
	"motorway":       100,
	"motorway_link":  60,
	"trunk":          80,
	"trunk_link":     50,
	"primary":        60,
	"primary_link":   40,
	"secondary":      50,
	"secondary_link": 40,
	"tertiary":       40,
	"tertiary_link":  30,
	"unclassified":   30,
	"residential":    30,
	"living_street":  10,
	"service":        20,
	"track":          15,
	"cycleway":       15,
	"path":           5,
	"footway":        5,
	"pedestrian":     5,
	"steps":          3,
}

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// travelModes returns the mode bitmask a way is open to, or 0 if none.
func travelModes(tags osm.Tags) uint8 {
	hw := tags.Find("highway")
	if _, ok := highwaySpeeds[hw]; !ok {
		return 0
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return 0
	}

	access := tags.Find("access")
	if access == "no" || access == "private" {
		return 0
	}

	var modes uint8
	if carHighways[hw] && tags.Find("motor_vehicle") != "no" && tags.Find("motorcar") != "no" {
		modes |= ModeCar
	}
	switch hw {
	case "motorway", "motorway_link", "steps":
	default:
		if tags.Find("bicycle") != "no" {
			modes |= ModeBike
		}
	}
	switch hw {
	case "motorway", "motorway_link", "trunk", "trunk_link":
	default:
		if tags.Find("foot") != "no" {
			modes |= ModeFoot
		}
	}
	return modes
}

// wayDirections returns (forward, backward) based on highway type and oneway tags.
// Oneway restrictions do not bind pedestrians; walking edges are added in
// the closed direction separately by Parse.
func wayDirections(tags osm.Tags) (forward, backward bool) {
	// Default: bidirectional.
	forward = true
	backward = true

	hw := tags.Find("highway")

	// Implied oneway for motorways and roundabouts.
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	// Explicit oneway tag overrides.
	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent; skip entirely.
		forward = false
		backward = false
	}

	return forward, backward
}

// speedKmh returns the maxspeed tag when it parses, else the class default.
func speedKmh(tags osm.Tags) float64 {
	if v := tags.Find("maxspeed"); v != "" {
		mph := strings.HasSuffix(v, "mph")
		v = strings.TrimSpace(strings.TrimSuffix(v, "mph"))
		if s, err := strconv.ParseFloat(v, 64); err == nil && s > 0 {
			if mph {
				s *= 1.609344
			}
			return s
		}
	}
	return highwaySpeeds[tags.Find("highway")]
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
	Modes    uint8
	SpeedKmh float64
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox   BBox  // if non-zero, filter edges to this bounding box
	Modes  uint8 // keep only ways open to one of these modes; 0 keeps all
	Logger *slog.Logger
}

// Parse reads an OSM PBF file and returns directed edges.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opt ParseOptions) (*ParseResult, error) {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	useBBox := !opt.BBox.IsZero()

	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if len(w.Nodes) < 2 {
			continue
		}

		modes := travelModes(w.Tags)
		if opt.Modes != 0 {
			modes &= opt.Modes
		}
		if modes == 0 {
			continue
		}

		fwd, bwd := wayDirections(w.Tags)
		if !fwd && !bwd && modes&ModeFoot == 0 {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}

		ways = append(ways, wayInfo{
			NodeIDs:  nodeIDs,
			Forward:  fwd,
			Backward: bwd,
			Modes:    modes,
			SpeedKmh: speedKmh(w.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Info("pass 1 complete", "ways", len(ways), "referenced_nodes", len(referencedNodes))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Info("pass 2 complete", "node_coordinates", len(nodeLat))

	edges, skipped, filtered := buildEdges(ways, nodeLat, nodeLon, opt.BBox, useBBox)

	if skipped > 0 {
		logger.Warn("skipped edges with missing node coordinates", "count", skipped)
	}
	if filtered > 0 {
		logger.Info("filtered edges outside bounding box", "count", filtered)
	}
	logger.Info("built directed edges", "count", len(edges))

	return &ParseResult{
		Edges:   edges,
		NodeLat: nodeLat,
		NodeLon: nodeLon,
	}, nil
}

// buildEdges expands way node lists into directed edges.
func buildEdges(ways []wayInfo, nodeLat, nodeLon map[osm.NodeID]float64, bbox BBox, useBBox bool) (edges []RawEdge, skipped, filtered int) {
	for _, w := range ways {
		// Pedestrians may walk against oneway restrictions.
		fwdModes, bwdModes := w.Modes, w.Modes
		if !w.Forward {
			fwdModes &= ModeFoot
		}
		if !w.Backward {
			bwdModes &= ModeFoot
		}

		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			fromLon := nodeLon[fromID]
			toLat, toOk := nodeLat[toID]
			toLon := nodeLon[toID]

			if !fromOk || !toOk {
				skipped++
				continue
			}

			if useBBox && (!bbox.Contains(fromLat, fromLon) || !bbox.Contains(toLat, toLon)) {
				filtered++
				continue
			}

			weight := travelTimeMillis(geo.Haversine(fromLat, fromLon, toLat, toLon), w.SpeedKmh)

			if fwdModes != 0 {
				edges = append(edges, RawEdge{FromNodeID: fromID, ToNodeID: toID, Weight: weight, Kind: fwdModes})
			}
			if bwdModes != 0 {
				edges = append(edges, RawEdge{FromNodeID: toID, ToNodeID: fromID, Weight: weight, Kind: bwdModes})
			}
		}
	}
	return edges, skipped, filtered
}

// travelTimeMillis converts a distance and speed into a positive edge weight.
func travelTimeMillis(meters, kmh float64) uint32 {
	if kmh <= 0 {
		kmh = 5
	}
	ms := math.Round(meters / (kmh / 3.6) * 1000)
	if ms < 1 {
		return 1 // avoid zero-weight edges
	}
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}
