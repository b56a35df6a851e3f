package generator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/seed"
)

func TestGenerateRandom_Connected(t *testing.T) {
	ctx := context.Background()
	gen := New(Config{Mode: ModeRandom, NumNodes: 50, ExtraEdges: 20, MaxCost: 5, Seed: 7})

	ds, err := gen.Generate(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(ds.Edges) != 49+20 {
		t.Fatalf("expected 69 edges, got %d", len(ds.Edges))
	}
	for _, e := range ds.Edges {
		if e.Cost < 0 || e.Cost > 5 {
			t.Fatalf("cost out of range: %+v", e)
		}
	}

	g, err := engine.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer g.Close()
	if _, err := seed.Apply(ctx, g, seed.Definition{Edges: ds.Edges}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, found, err := g.ShortestPath(ctx, nodeName(0), nodeName(49))
	if err != nil || !found {
		t.Fatalf("expected first and last node to be connected, found=%v err=%v", found, err)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	for _, mode := range []Mode{ModeRandom, ModeTerrain} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := Config{Mode: mode, NumNodes: 30, ExtraEdges: 10, Width: 6, Height: 5, Seed: 99}
			a, err := New(cfg).Generate(context.Background())
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			b, err := New(cfg).Generate(context.Background())
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if len(a.Edges) != len(b.Edges) {
				t.Fatalf("edge counts differ: %d vs %d", len(a.Edges), len(b.Edges))
			}
			for i := range a.Edges {
				if a.Edges[i] != b.Edges[i] {
					t.Fatalf("edge %d differs: %+v vs %+v", i, a.Edges[i], b.Edges[i])
				}
			}
		})
	}
}

func TestGenerateTerrain_Grid(t *testing.T) {
	gen := New(Config{Mode: ModeTerrain, Width: 4, Height: 3, Steepness: 10, Seed: 1})

	ds, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// (w-1)*h horizontal plus w*(h-1) vertical edges.
	if want := 3*3 + 4*2; len(ds.Edges) != want {
		t.Fatalf("expected %d edges, got %d", want, len(ds.Edges))
	}
	for _, e := range ds.Edges {
		if e.Cost < 1 || e.Cost > 1+2*10 {
			t.Fatalf("slope cost out of range: %+v", e)
		}
	}
	if ds.Edges[0].From != "R000C000" || ds.Edges[0].To != "R000C001" {
		t.Fatalf("unexpected first edge: %+v", ds.Edges[0])
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(Config{Mode: ModeRandom, NumNodes: 10, Seed: 1}).Generate(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("terrain"); err != nil || m != ModeTerrain {
		t.Fatalf("expected terrain, got %q %v", m, err)
	}
	if _, err := ParseMode("spiral"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestWriteDataset_RoundTripsAsSeed(t *testing.T) {
	ds := Dataset{Edges: []seed.Edge{{From: "a", To: "b", Cost: 1.5}, {From: "b", To: "c", Cost: 2, Type: "ROAD"}}}
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteDataset(ds, dir)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	def, err := seed.Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(def.Edges) != 2 || def.Edges[1] != ds.Edges[1] {
		t.Fatalf("unexpected round trip: %+v", def.Edges)
	}
}
