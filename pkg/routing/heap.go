package routing

import (
	"math"
)

const noNode = ^uint32(0) // sentinel for "no node"

const infinity = math.MaxUint64

// MinHeap is a concrete-typed min-heap for the Dijkstra frontier.
// Avoids interface boxing overhead of container/heap.
type MinHeap struct {
	items []PQItem
}

// PQItem is a priority queue entry.
type PQItem struct {
	Node uint32
	Dist uint64
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node uint32, dist uint64) {
	h.items = append(h.items, PQItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) PeekDist() uint64 {
	if len(h.items) == 0 {
		return infinity
	}
	return h.items[0].Dist
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Dist >= h.items[parent].Dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].Dist < h.items[smallest].Dist {
			smallest = left
		}
		if right < n && h.items[right].Dist < h.items[smallest].Dist {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// queryState holds the per-query distance/predecessor table and frontier.
// One query owns it at a time; it is reset and pooled afterwards.
type queryState struct {
	dist    []uint64
	pred    []uint32 // noNode = no predecessor
	touched []uint32 // nodes touched during this query (for fast reset)
	pq      MinHeap
}

func newQueryState(n uint32) *queryState {
	dist := make([]uint64, n)
	pred := make([]uint32, n)
	for i := range dist {
		dist[i] = infinity
		pred[i] = noNode
	}
	return &queryState{
		dist:    dist,
		pred:    pred,
		touched: make([]uint32, 0, 1024),
		pq:      MinHeap{items: make([]PQItem, 0, 256)},
	}
}

// reset clears only the touched entries for fast reuse.
func (qs *queryState) reset() {
	for _, node := range qs.touched {
		qs.dist[node] = infinity
		qs.pred[node] = noNode
	}
	qs.touched = qs.touched[:0]
	qs.pq.Reset()
}

func (qs *queryState) set(node uint32, dist uint64, pred uint32) {
	if qs.dist[node] == infinity {
		qs.touched = append(qs.touched, node)
	}
	qs.dist[node] = dist
	qs.pred[node] = pred
}
