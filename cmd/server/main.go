package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/vanshika/routegraph/internal/config"
	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/feed"
	"github.com/vanshika/routegraph/internal/graph"
	"github.com/vanshika/routegraph/internal/logging"
	"github.com/vanshika/routegraph/internal/repository"
	"github.com/vanshika/routegraph/internal/seed"
	"github.com/vanshika/routegraph/internal/server"
	"github.com/vanshika/routegraph/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	if graphClient != nil {
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()
	}

	opts := []engine.Option{engine.WithLogger(logger.With("component", "engine"))}
	if graphClient != nil {
		repo := repository.New(graphClient)
		if cfg.Graph.EnsureSchema {
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}
		}
		opts = append(opts, engine.WithPersister(repo))
	}

	g, err := engine.Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer g.Close()

	routeService := service.NewRouteService(g, logger)
	if err := applySeed(ctx, logger, routeService, cfg.Seed); err != nil {
		return err
	}

	var wg sync.WaitGroup
	if cfg.Feed.Enabled() {
		consumer, err := feed.Dial(cfg.Feed)
		if err != nil {
			return err
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Warn("closing feed consumer failed", "error", err)
			}
		}()

		edgeFeed := feed.NewConsumer(consumer, cfg.Feed.Topic, routeService, feed.WithLogger(logger))
		wg.Add(1)
		go func() {
			defer wg.Done()
			// A failed feed stops consuming; the API keeps serving.
			if err := edgeFeed.Run(ctx); err != nil {
				logger.Error("edge feed failed", "error", err)
			}
		}()
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.GraphHealthService{Engine: routeService, Client: graphClient},
		API:              server.NewAPIHandlers(logger, routeService),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr(), err)
	}

	err = srv.Run(ctx, ln)
	if ctx.Err() != nil {
		logger.Info("received shutdown signal")
	}
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		logger.Info("GRAPH_URI not set, graph is kept in memory only")
		return nil, nil
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

// applySeed loads the configured seed file into an empty graph. A graph restored
// from the database already holds the seed and is left untouched.
func applySeed(ctx context.Context, logger *slog.Logger, svc *service.RouteService, cfg config.SeedConfig) error {
	if cfg.File == "" {
		return nil
	}

	st, err := svc.Stats()
	if err != nil {
		return err
	}
	if st.Edges > 0 {
		logger.Info("seed skipped, graph already populated", "file", cfg.File, "edges", st.Edges)
		return nil
	}

	def, err := seed.Load(cfg.File, cfg.Vars)
	if err != nil {
		return err
	}
	n, err := svc.ApplySeed(ctx, def)
	if err != nil {
		return err
	}
	logger.Info("seed applied", "file", cfg.File, "edges", n)
	return nil
}
