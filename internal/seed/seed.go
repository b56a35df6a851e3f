// Package seed loads graph definitions from files and applies them to a graph.
//
// Two formats are understood. HCL files declare one block per edge:
//
//	edge "s" "c" {
//	  cost = 7
//	}
//
//	edge "c" "e" {
//	  cost = var.bridge
//	  type = "REL"
//	}
//
// where var.<name> resolves from caller-supplied numeric variables. JSON files
// hold an array of {"from", "to", "cost", "type"} objects. Edges apply in file order.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vanshika/routegraph/internal/engine"
)

// ErrUnsupportedFormat is returned by Load for file extensions other than .hcl and .json.
var ErrUnsupportedFormat = errors.New("unsupported seed format")

// Edge is one edge declaration in a seed file.
type Edge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Cost float64 `json:"cost"`
	Type string  `json:"type,omitempty"`
}

// Definition is the ordered list of edges a seed file declares.
type Definition struct {
	Edges []Edge
}

// Sink receives seed edges. *engine.Graph satisfies it.
type Sink interface {
	AddEdge(ctx context.Context, from, to string, cost float64, opts ...engine.EdgeOption) (engine.Edge, error)
}

type hclSeedFile struct {
	Edges []*hclEdge `hcl:"edge,block"`
}

type hclEdge struct {
	From string  `hcl:"from,label"`
	To   string  `hcl:"to,label"`
	Cost float64 `hcl:"cost"`
	Type *string `hcl:"type,optional"`
}

// Load reads a seed file, choosing the decoder from its extension.
func Load(path string, vars map[string]float64) (Definition, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return LoadHCL(path, vars)
	case ".json":
		return LoadJSON(path)
	default:
		return Definition{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadHCL parses and decodes an HCL seed file.
func LoadHCL(path string, vars map[string]float64) (Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Definition{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decodeHCL(file, path, vars)
}

// ParseHCL decodes HCL seed source held in memory. filename is used in diagnostics.
func ParseHCL(src []byte, filename string, vars map[string]float64) (Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Definition{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeHCL(file, filename, vars)
}

func decodeHCL(file *hcl.File, filename string, vars map[string]float64) (Definition, error) {
	var parsed hclSeedFile
	diags := gohcl.DecodeBody(file.Body, evalContext(vars), &parsed)
	if diags.HasErrors() {
		return Definition{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	def := Definition{Edges: make([]Edge, 0, len(parsed.Edges))}
	for _, e := range parsed.Edges {
		edge := Edge{From: e.From, To: e.To, Cost: e.Cost}
		if e.Type != nil {
			edge.Type = *e.Type
		}
		def.Edges = append(def.Edges, edge)
	}
	return def, nil
}

func evalContext(vars map[string]float64) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for name, v := range vars {
		values[name] = cty.NumberFloatVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(values),
		},
	}
}

// LoadJSON reads a JSON array of edges.
func LoadJSON(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseJSON(data)
}

// ParseJSON decodes a JSON array of edges.
func ParseJSON(data []byte) (Definition, error) {
	var edges []Edge
	if err := json.Unmarshal(data, &edges); err != nil {
		return Definition{}, fmt.Errorf("decode seed json: %w", err)
	}
	return Definition{Edges: edges}, nil
}

// Apply adds every edge of def to sink in order and reports how many were applied.
// It stops at the first rejected edge.
func Apply(ctx context.Context, sink Sink, def Definition) (int, error) {
	for i, e := range def.Edges {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := sink.AddEdge(ctx, e.From, e.To, e.Cost, engine.WithType(engine.RelType(e.Type))); err != nil {
			return i, fmt.Errorf("seed edge %d (%s -> %s): %w", i, e.From, e.To, err)
		}
	}
	return len(def.Edges), nil
}
