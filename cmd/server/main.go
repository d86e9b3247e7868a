package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"road_router/pkg/api"
	"road_router/pkg/config"
	"road_router/pkg/graph"
	"road_router/pkg/logging"
	"road_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	graphPath := flag.String("graph", "", "Graph location: local path or s3://bucket/key (.json for dataset records)")
	port := flag.Int("port", 0, "HTTP port (overrides addr)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	locator := flag.String("locator", "", "Nearest-node locator: linear or rtree")
	staticDir := flag.String("static", "", "Directory served at /")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "graph":
			cfg.Graph = *graphPath
		case "port":
			cfg.Addr = fmt.Sprintf(":%d", *port)
		case "cors-origin":
			cfg.CORSOrigin = *corsOrigin
		case "locator":
			cfg.Locator = *locator
		case "static":
			cfg.StaticDir = *staticDir
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	start := time.Now()

	// Load graph.
	logger.Info("loading graph", "location", cfg.Graph)
	g, err := graph.Open(context.Background(), cfg.Graph, graph.S3Options{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Secure:    cfg.S3.Secure,
	})
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	logger.Info("graph loaded", "nodes", g.NumNodes, "edges", g.NumEdges)

	// Build routing engine.
	loc, err := routing.NewLocator(g, cfg.Locator)
	if err != nil {
		return err
	}
	engine := routing.NewEngine(g, loc, logger)
	logger.Info("ready", "locator", cfg.Locator, "elapsed", time.Since(start).Round(time.Millisecond))

	// Setup HTTP server.
	handlers := api.NewHandlers(engine, g, api.NewStats(g, cfg.Locator), logger)
	srv := api.NewServer(api.ServerConfig{
		Addr:           cfg.Addr,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		RequestTimeout: cfg.RequestTimeout,
		MaxConcurrent:  cfg.MaxConcurrent,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		CORSOrigin:     cfg.CORSOrigin,
		StaticDir:      cfg.StaticDir,
	}, handlers, api.NewMetrics(), logger)

	return api.ListenAndServe(srv, logger)
}
