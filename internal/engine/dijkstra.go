package engine

import (
	"container/heap"
	"context"
	"fmt"
	"math"
)

// Direction selects which way an edge may be walked during a path search.
type Direction int

const (
	// Both walks an edge from either endpoint.
	Both Direction = iota
	// Outgoing walks an edge only from From to To.
	Outgoing
	// Incoming walks an edge only from To to From.
	Incoming
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	default:
		return "both"
	}
}

// Expander decides which edges a search may follow. An empty Types set allows every type.
type Expander struct {
	Types     []RelType
	Direction Direction
}

// DefaultExpander follows DefaultRelType edges in both directions.
func DefaultExpander() Expander {
	return Expander{Types: []RelType{DefaultRelType}, Direction: Both}
}

// traverse returns the node reached by walking e away from at.
func (x Expander) traverse(e *Edge, at NodeID) (NodeID, bool) {
	if !x.allows(e.Type) {
		return 0, false
	}
	switch x.Direction {
	case Outgoing:
		if e.From == at {
			return e.To, true
		}
	case Incoming:
		if e.To == at {
			return e.From, true
		}
	default:
		return e.Other(at), true
	}
	return 0, false
}

func (x Expander) allows(t RelType) bool {
	if len(x.Types) == 0 {
		return true
	}
	for _, allowed := range x.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// cancelCheckInterval is how many settled nodes pass between context checks.
const cancelCheckInterval = 1024

type parentLink struct {
	from NodeID
	edge *Edge
}

// shortestPath runs Dijkstra from start and stops once end is settled.
// A relaxation whose cost overflows is dropped; if end is then left unsettled
// but still reachable past such a relaxation, the search fails with ErrCostOverflow.
//
// Ties are resolved deterministically: a node's edges are relaxed in insertion
// order, a tentative cost is only replaced by a strictly cheaper one, and queue
// entries of equal cost pop in the order they were pushed.
func shortestPath(ctx context.Context, s *store, x Expander, start, end NodeID) (WeightedPath, bool, error) {
	dist := map[NodeID]float64{start: 0}
	parents := make(map[NodeID]parentLink)
	settled := make(map[NodeID]bool)

	pq := &costQueue{}
	var seq uint64
	heap.Push(pq, &queueItem{node: start, cost: 0, seq: seq})

	var overflowed []NodeID
	popped := 0
	for pq.Len() > 0 {
		if popped%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return WeightedPath{}, false, err
			}
		}
		popped++

		item := heap.Pop(pq).(*queueItem)
		if settled[item.node] {
			continue
		}
		settled[item.node] = true

		if item.node == end {
			return buildPath(s, parents, start, end, item.cost), true, nil
		}

		for _, e := range s.edgesOf(item.node) {
			next, ok := x.traverse(e, item.node)
			if !ok || settled[next] {
				continue
			}
			candidate := item.cost + e.Cost
			if math.IsInf(candidate, 0) {
				overflowed = append(overflowed, next)
				continue
			}
			if current, seen := dist[next]; seen && candidate >= current {
				continue
			}
			dist[next] = candidate
			parents[next] = parentLink{from: item.node, edge: e}
			seq++
			heap.Push(pq, &queueItem{node: next, cost: candidate, seq: seq})
		}
	}

	if len(overflowed) > 0 && reachable(s, x, overflowed, end) {
		return WeightedPath{}, false, fmt.Errorf("%w: reaching node %d", ErrCostOverflow, end)
	}
	return WeightedPath{}, false, nil
}

// reachable reports whether target can be walked to from any node in from, ignoring costs.
func reachable(s *store, x Expander, from []NodeID, target NodeID) bool {
	seen := make(map[NodeID]bool, len(from))
	queue := make([]NodeID, 0, len(from))
	for _, id := range from {
		if !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		at := queue[0]
		queue = queue[1:]
		if at == target {
			return true
		}
		for _, e := range s.edgesOf(at) {
			next, ok := x.traverse(e, at)
			if ok && !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

type queueItem struct {
	node NodeID
	cost float64
	seq  uint64
}

// costQueue is a min-heap on cost, then push order. Stale entries are skipped when popped.
type costQueue []*queueItem

func (q costQueue) Len() int { return len(q) }

func (q costQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}

func (q costQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *costQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *costQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
