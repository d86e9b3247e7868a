package osm

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTravelModes(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want uint8
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: ModeCar | ModeBike | ModeFoot,
		},
		{
			name: "motorway is car only",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			want: ModeCar,
		},
		{
			name: "trunk has no pedestrians",
			tags: osm.Tags{{Key: "highway", Value: "trunk"}},
			want: ModeCar | ModeBike,
		},
		{
			name: "footway",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: ModeBike | ModeFoot,
		},
		{
			name: "footway with bicycle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "footway"},
				{Key: "bicycle", Value: "no"},
			},
			want: ModeFoot,
		},
		{
			name: "steps",
			tags: osm.Tags{{Key: "highway", Value: "steps"}},
			want: ModeFoot,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: 0,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: ModeBike | ModeFoot,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "area", Value: "yes"},
			},
			want: 0,
		},
		{
			name: "no highway tag",
			tags: osm.Tags{{Key: "name", Value: "Some Street"}},
			want: 0,
		},
		{
			name: "unroutable highway value",
			tags: osm.Tags{{Key: "highway", Value: "construction"}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, travelModes(tt.tags))
		})
	}
}

func TestWayDirections(t *testing.T) {
	tests := []struct {
		name         string
		tags         osm.Tags
		wantForward  bool
		wantBackward bool
	}{
		{
			name:         "default bidirectional",
			tags:         osm.Tags{{Key: "highway", Value: "residential"}},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name:         "motorway implied oneway",
			tags:         osm.Tags{{Key: "highway", Value: "motorway"}},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "roundabout implied oneway",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "junction", Value: "roundabout"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "explicit oneway=yes",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "yes"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "explicit oneway=-1",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "-1"},
			},
			wantForward:  false,
			wantBackward: true,
		},
		{
			name: "explicit oneway=no overrides implied",
			tags: osm.Tags{
				{Key: "highway", Value: "motorway"},
				{Key: "oneway", Value: "no"},
			},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name: "oneway=reversible closes both directions",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reversible"},
			},
			wantForward:  false,
			wantBackward: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := wayDirections(tt.tags)
			assert.Equal(t, tt.wantForward, fwd, "forward")
			assert.Equal(t, tt.wantBackward, bwd, "backward")
		})
	}
}

func TestSpeedKmh(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want float64
	}{
		{"class default", osm.Tags{{Key: "highway", Value: "primary"}}, 60},
		{"maxspeed km/h", osm.Tags{{Key: "highway", Value: "primary"}, {Key: "maxspeed", Value: "70"}}, 70},
		{"maxspeed mph", osm.Tags{{Key: "highway", Value: "primary"}, {Key: "maxspeed", Value: "30 mph"}}, 30 * 1.609344},
		{"unparseable maxspeed", osm.Tags{{Key: "highway", Value: "residential"}, {Key: "maxspeed", Value: "walk"}}, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, speedKmh(tt.tags), 1e-9)
		})
	}
}

func TestBuildEdgesOneway(t *testing.T) {
	ways := []wayInfo{
		{
			NodeIDs:  []osm.NodeID{1, 2, 3},
			Forward:  true,
			Backward: false,
			Modes:    ModeCar | ModeFoot,
			SpeedKmh: 36, // 10 m/s
		},
	}
	lat := map[osm.NodeID]float64{1: 0, 2: 0, 3: 0}
	lon := map[osm.NodeID]float64{1: 0, 2: 0.001, 3: 0.002}

	edges, skipped, filtered := buildEdges(ways, lat, lon, BBox{}, false)
	require.Zero(t, skipped)
	require.Zero(t, filtered)
	require.Len(t, edges, 4)

	// Forward edges carry every mode, reverse edges only walking.
	assert.Equal(t, osm.NodeID(1), edges[0].FromNodeID)
	assert.Equal(t, ModeCar|ModeFoot, edges[0].Kind)
	assert.Equal(t, osm.NodeID(2), edges[1].FromNodeID)
	assert.Equal(t, ModeFoot, edges[1].Kind)

	// ~111 m at 10 m/s.
	assert.InDelta(t, 11_120, float64(edges[0].Weight), 20)
}

func TestBuildEdgesSkipsAndFilters(t *testing.T) {
	ways := []wayInfo{
		{NodeIDs: []osm.NodeID{1, 2, 99}, Forward: true, Backward: true, Modes: ModeCar, SpeedKmh: 50},
		{NodeIDs: []osm.NodeID{2, 3}, Forward: true, Backward: true, Modes: ModeCar, SpeedKmh: 50},
	}
	lat := map[osm.NodeID]float64{1: 1.30, 2: 1.31, 3: 5.0}
	lon := map[osm.NodeID]float64{1: 103.8, 2: 103.81, 3: 110.0}
	bbox := BBox{MinLat: 1.0, MaxLat: 2.0, MinLng: 103, MaxLng: 104}

	edges, skipped, filtered := buildEdges(ways, lat, lon, bbox, true)
	assert.Equal(t, 1, skipped, "node 99 has no coordinates")
	assert.Equal(t, 1, filtered, "node 3 lies outside the box")
	assert.Len(t, edges, 2)
}

func TestTravelTimeMillis(t *testing.T) {
	assert.Equal(t, uint32(1), travelTimeMillis(0, 50), "zero-length edges get weight 1")
	assert.Equal(t, uint32(10_000), travelTimeMillis(100, 36))
	assert.Equal(t, uint32(72_000), travelTimeMillis(100, 0), "missing speed falls back to walking pace")
}
