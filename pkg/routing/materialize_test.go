package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road_router/pkg/graph"
)

func TestToCoordinates(t *testing.T) {
	g := triangle(t)

	coords, err := ToCoordinates(g, []uint32{2, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []graph.Node{
		{Lat: 1, Lon: 1},
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 0},
	}, coords)

	coords, err = ToCoordinates(g, nil)
	require.NoError(t, err)
	assert.Empty(t, coords)
}

func TestToCoordinatesOutOfRange(t *testing.T) {
	g := triangle(t)

	coords, err := ToCoordinates(g, []uint32{0, 1, 3})
	assert.ErrorIs(t, err, graph.ErrIndexOutOfRange)
	assert.Nil(t, coords)
}
