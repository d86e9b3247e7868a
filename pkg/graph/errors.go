package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGraph is wrapped by every ConstructionError.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrNoDirectEdge is returned by EdgeWeight when no edge connects the nodes.
	ErrNoDirectEdge = errors.New("no direct edge")

	// ErrIndexOutOfRange is returned for node indices >= NumNodes.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyGraph is returned when a lookup needs at least one node.
	ErrEmptyGraph = errors.New("graph has no nodes")
)

// ConstructionError describes malformed construction input.
type ConstructionError struct {
	Field  string // "nodes", "ways", "offset"
	Index  int    // offending element, -1 if not element-specific
	Reason string
}

func (e *ConstructionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid graph: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid graph: %s[%d]: %s", e.Field, e.Index, e.Reason)
}

func (e *ConstructionError) Unwrap() error { return ErrInvalidGraph }

func constructionErr(field string, index int, format string, args ...any) error {
	return &ConstructionError{Field: field, Index: index, Reason: fmt.Sprintf(format, args...)}
}
