package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/routegraph/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		mode       = flag.String("mode", string(cfg.Mode), "graph shape: random or terrain")
		nodes      = flag.Int("nodes", cfg.NumNodes, "number of nodes (random mode)")
		extraEdges = flag.Int("extra-edges", cfg.ExtraEdges, "edges added on top of the spanning tree (random mode)")
		maxCost    = flag.Float64("max-cost", cfg.MaxCost, "upper bound for edge costs (random mode)")
		width      = flag.Int("width", cfg.Width, "grid width (terrain mode)")
		height     = flag.Int("height", cfg.Height, "grid height (terrain mode)")
		noiseScale = flag.Float64("noise-scale", cfg.NoiseScale, "elevation noise frequency (terrain mode)")
		steepness  = flag.Float64("steepness", cfg.Steepness, "cost added per unit of climb (terrain mode)")
		seed       = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir  = flag.String("output-dir", "data", "directory to write edges.json")
		toStdout   = flag.Bool("stdout", false, "write the edge list to stdout instead of a file")
	)
	flag.Parse()

	genMode, err := generator.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	genCfg := generator.Config{
		Mode:       genMode,
		NumNodes:   *nodes,
		ExtraEdges: *extraEdges,
		MaxCost:    *maxCost,
		Width:      *width,
		Height:     *height,
		NoiseScale: *noiseScale,
		Steepness:  *steepness,
		Seed:       *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *toStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset.Edges); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	path, err := generator.WriteDataset(dataset, *outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d %s edges into %s\n", len(dataset.Edges), genMode, path)
}
