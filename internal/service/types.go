package service

import (
	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/seed"
)

// EdgeInput is the inbound payload for a single edge insertion.
type EdgeInput struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Cost float64 `json:"cost"`
	Type string  `json:"type,omitempty"`
}

// PathResult is the outcome of a shortest path query. Path is only meaningful when Found is true.
type PathResult struct {
	From  string
	To    string
	Found bool
	Path  engine.WeightedPath
}

func (in EdgeInput) normalized() EdgeInput {
	return EdgeInput{
		From: sanitizeString(in.From),
		To:   sanitizeString(in.To),
		Cost: in.Cost,
		Type: sanitizeString(in.Type),
	}
}

// EdgeInputsFromSeed converts seed edges into service inputs, keeping file order.
func EdgeInputsFromSeed(edges []seed.Edge) []EdgeInput {
	inputs := make([]EdgeInput, 0, len(edges))
	for _, e := range edges {
		inputs = append(inputs, EdgeInput{From: e.From, To: e.To, Cost: e.Cost, Type: e.Type})
	}
	return inputs
}
