package graph

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonDataset is the plain dataset record: nodes, ways and their offset array.
type jsonDataset struct {
	Nodes []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"nodes"`
	Ways   []Way   `json:"ways"`
	Offset []int64 `json:"offset"`
}

// ReadJSON decodes a dataset record and constructs the graph from it.
// When the record has no offset array the ways are sorted and one is derived.
func ReadJSON(r io.Reader) (*Graph, error) {
	var ds jsonDataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	nodes := make([]Node, len(ds.Nodes))
	for i, n := range ds.Nodes {
		nodes[i] = Node{Lat: n.Latitude, Lon: n.Longitude}
	}

	if ds.Offset == nil {
		return FromWays(nodes, ds.Ways)
	}
	return New(Input{Nodes: nodes, Ways: ds.Ways, Offset: ds.Offset})
}
