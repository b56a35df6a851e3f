// Command dijkstra builds a small weighted graph and prints the cheapest path
// between two of its nodes, one node name per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/seed"
)

// exampleGraph is used when no seed file is given.
var exampleGraph = seed.Definition{Edges: []seed.Edge{
	{From: "s", To: "c", Cost: 7},
	{From: "c", To: "e", Cost: 7},
	{From: "s", To: "a", Cost: 2},
	{From: "a", To: "b", Cost: 7},
	{From: "b", To: "e", Cost: 2},
}}

func main() {
	var (
		from       = flag.String("from", "s", "name of the start node")
		to         = flag.String("to", "e", "name of the end node")
		seedFile   = flag.String("seed", "", "optional .hcl or .json graph definition replacing the built-in example")
		showWeight = flag.Bool("weight", false, "print the total path weight after the node names")
	)
	flag.Parse()

	def := exampleGraph
	if *seedFile != "" {
		loaded, err := seed.Load(*seedFile, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load seed: %v\n", err)
			os.Exit(1)
		}
		def = loaded
	}

	if err := run(context.Background(), os.Stdout, def, *from, *to, *showWeight); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, def seed.Definition, from, to string, showWeight bool) error {
	g, err := engine.Open(ctx)
	if err != nil {
		return fmt.Errorf("open graph: %w", err)
	}
	defer g.Close()

	if _, err := seed.Apply(ctx, g, def); err != nil {
		return err
	}

	path, found, err := g.ShortestPath(ctx, from, to)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no path from %q to %q", from, to)
	}

	for _, name := range path.Names() {
		fmt.Fprintln(out, name)
	}
	if showWeight {
		fmt.Fprintf(out, "weight: %g\n", path.Weight)
	}
	return nil
}
