package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/vanshika/routegraph/internal/seed"
)

// Dataset contains the generated edges in insertion order.
type Dataset struct {
	Edges []seed.Edge `json:"edges"`
}

// Generator produces synthetic weighted graphs.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	noise opensimplex.Noise
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = defaults.Mode
	}
	if cfg.NumNodes <= 0 {
		cfg.NumNodes = defaults.NumNodes
	}
	if cfg.ExtraEdges < 0 {
		cfg.ExtraEdges = 0
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = defaults.MaxCost
	}
	if cfg.Width <= 0 {
		cfg.Width = defaults.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = defaults.Height
	}
	if cfg.NoiseScale <= 0 {
		cfg.NoiseScale = defaults.NoiseScale
	}
	if cfg.Steepness < 0 {
		cfg.Steepness = defaults.Steepness
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(cfg.Seed)),
		noise: opensimplex.New(cfg.Seed),
	}
}

// Generate synthesises a dataset for the configured mode. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	switch g.cfg.Mode {
	case ModeRandom:
		return g.random(ctx)
	case ModeTerrain:
		return g.terrain(ctx)
	default:
		return Dataset{}, fmt.Errorf("unknown generator mode %q", g.cfg.Mode)
	}
}

func (g *Generator) random(ctx context.Context) (Dataset, error) {
	n := g.cfg.NumNodes
	edges := make([]seed.Edge, 0, n-1+g.cfg.ExtraEdges)

	// Every node after the first attaches to an earlier one, so the graph is connected.
	for i := 1; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		parent := g.rand.Intn(i)
		edges = append(edges, seed.Edge{From: nodeName(parent), To: nodeName(i), Cost: g.randomCost()})
	}

	if n > 1 {
		for i := 0; i < g.cfg.ExtraEdges; i++ {
			if err := ctx.Err(); err != nil {
				return Dataset{}, err
			}
			from := g.rand.Intn(n)
			to := g.rand.Intn(n)
			edges = append(edges, seed.Edge{From: nodeName(from), To: nodeName(to), Cost: g.randomCost()})
		}
	}

	return Dataset{Edges: edges}, nil
}

func (g *Generator) terrain(ctx context.Context) (Dataset, error) {
	w, h := g.cfg.Width, g.cfg.Height
	edges := make([]seed.Edge, 0, 2*w*h)

	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		for x := 0; x < w; x++ {
			if x+1 < w {
				edges = append(edges, seed.Edge{From: cellName(x, y), To: cellName(x+1, y), Cost: g.slope(x, y, x+1, y)})
			}
			if y+1 < h {
				edges = append(edges, seed.Edge{From: cellName(x, y), To: cellName(x, y+1), Cost: g.slope(x, y, x, y+1)})
			}
		}
	}

	return Dataset{Edges: edges}, nil
}

// elevation maps a cell to [-1, 1].
func (g *Generator) elevation(x, y int) float64 {
	s := g.cfg.NoiseScale
	return g.noise.Eval2(float64(x)*s, float64(y)*s)
}

// slope is the cost of moving between two adjacent cells: one unit plus the climb.
func (g *Generator) slope(x1, y1, x2, y2 int) float64 {
	climb := math.Abs(g.elevation(x2, y2) - g.elevation(x1, y1))
	return round3(1 + climb*g.cfg.Steepness)
}

func (g *Generator) randomCost() float64 {
	return round3(g.rand.Float64() * g.cfg.MaxCost)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func nodeName(i int) string {
	return fmt.Sprintf("N-%06d", i+1)
}

func cellName(x, y int) string {
	return fmt.Sprintf("R%03dC%03d", y, x)
}
