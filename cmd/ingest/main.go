package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/routegraph/internal/config"
	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/graph"
	"github.com/vanshika/routegraph/internal/logging"
	"github.com/vanshika/routegraph/internal/repository"
	"github.com/vanshika/routegraph/internal/seed"
	"github.com/vanshika/routegraph/internal/service"
)

var errMissingDataset = errors.New("dataset not found")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		file    = flag.String("file", cfg.Seed.File, "graph definition to ingest (.hcl or .json, e.g. datagen's edges.json)")
		workers = flag.Int("workers", 1, "number of concurrent workers; above 1 edge identifiers follow arrival order")
	)
	flag.Parse()

	logger := logging.New(cfg.Logging).With("component", "ingest")

	if *file == "" {
		logger.Error("dataset resolution failed", "error", fmt.Errorf("%w: pass -file or set SEED_FILE", errMissingDataset))
		os.Exit(1)
	}
	if _, err := os.Stat(*file); err != nil {
		logger.Error("dataset resolution failed", "error", fmt.Errorf("%w: %s", errMissingDataset, *file))
		os.Exit(1)
	}

	def, err := seed.Load(*file, cfg.Seed.Vars)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "path", *file)
		os.Exit(1)
	}
	if len(def.Edges) == 0 {
		logger.Error("dataset empty", "path", *file)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	if err := ingest(ctx, logger, graphClient, cfg.Graph.EnsureSchema, def, *workers); err != nil {
		logger.Error("edge ingestion failed", "error", err)
		os.Exit(1)
	}
}

func ingest(ctx context.Context, logger *slog.Logger, client graph.Client, ensureSchema bool, def seed.Definition, workers int) error {
	repo := repository.New(client)
	if ensureSchema {
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	g, err := engine.Open(ctx, engine.WithPersister(repo), engine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer g.Close()

	inputs := service.EdgeInputsFromSeed(def.Edges)

	ingestor := service.NewBulkIngestor(service.NewRouteService(g, logger), workers)
	start := time.Now()
	logger.Info("ingesting edges", "count", len(inputs), "workers", workers)
	if err := ingestor.IngestEdges(ctx, inputs); err != nil {
		return err
	}

	st, err := g.Stats()
	if err != nil {
		return err
	}
	logger.Info("ingestion complete", "duration", time.Since(start).String(), "nodes", st.Nodes, "edges", st.Edges)
	return nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion: %w", graph.ErrMissingURI)
	}
	client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
