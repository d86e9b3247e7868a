package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"road_router/pkg/graph"
	"road_router/pkg/logging"
	osmparser "road_router/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	jsonInput := flag.Bool("json", false, "Input is a JSON dataset (nodes, ways, offset) instead of OSM PBF")
	output := flag.String("output", "graph.bin", "Output binary graph file path")
	codecName := flag.String("codec", "zstd", "Payload compression: none, zstd or lz4")
	modes := flag.String("modes", "", "Comma-separated travel modes to keep: car,bike,foot (default all)")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 1.15,103.6,1.48,104.1)")
	singapore := flag.Bool("singapore", false, "Shortcut for --bbox 1.15,103.6,1.48,104.1 (Singapore bounding box)")
	kl := flag.Bool("kl", false, "Shortcut for --bbox 2.75,101.2,3.5,102.0 (Selangor + Kuala Lumpur bounding box)")
	keepAll := flag.Bool("keep-all", false, "Keep every component instead of only the largest")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm.pbf|file.json> [--json] [--output graph.bin] [--codec zstd] [--modes car,bike,foot] [--singapore | --kl | --bbox minLat,minLng,maxLat,maxLng]")
		os.Exit(1)
	}

	logger, err := logging.New(*logLevel, "text")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	codec, err := graph.ParseCodec(*codecName)
	if err != nil {
		logger.Error("invalid codec", "error", err)
		os.Exit(1)
	}

	// Parse options.
	opts := osmparser.ParseOptions{Logger: logger}
	if opts.Modes, err = parseModes(*modes); err != nil {
		logger.Error("invalid modes", "error", err)
		os.Exit(1)
	}
	switch {
	case *kl:
		opts.BBox = osmparser.BBox{MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0}
	case *singapore:
		opts.BBox = osmparser.BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	case *bbox != "":
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			logger.Error("invalid bbox (expected minLat,minLng,maxLat,maxLng)", "error", err)
			os.Exit(1)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	}
	if !opts.BBox.IsZero() {
		logger.Info("bounding box filter",
			"min_lat", opts.BBox.MinLat, "max_lat", opts.BBox.MaxLat,
			"min_lng", opts.BBox.MinLng, "max_lng", opts.BBox.MaxLng)
	}

	if err := run(*input, *jsonInput, *output, codec, !*keepAll, opts, logger); err != nil {
		logger.Error("preprocess failed", "error", err)
		os.Exit(1)
	}
}

func run(input string, jsonInput bool, output string, codec graph.Codec, largestOnly bool, opts osmparser.ParseOptions, logger *slog.Logger) error {
	start := time.Now()

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	// Step 1: Read the network.
	var g *graph.Graph
	if jsonInput {
		logger.Info("reading JSON dataset", "input", input)
		g, err = graph.ReadJSON(f)
	} else {
		logger.Info("parsing OSM data", "input", input)
		var parsed *osmparser.ParseResult
		parsed, err = osmparser.Parse(context.Background(), f, opts)
		if err != nil {
			return fmt.Errorf("parse OSM: %w", err)
		}
		logger.Info("parsed", "edges", len(parsed.Edges), "nodes", len(parsed.NodeLat))
		g, err = graph.Build(parsed)
	}
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	logger.Info("graph built", "nodes", g.NumNodes, "edges", g.NumEdges)

	// Step 2: Extract largest connected component.
	if largestOnly && g.NumNodes > 0 {
		keep := graph.LargestComponent(g)
		logger.Info("largest component",
			"nodes", keep.GetCardinality(),
			"share", fmt.Sprintf("%.1f%%", float64(keep.GetCardinality())/float64(g.NumNodes)*100))
		if g, err = graph.FilterToComponent(g, keep); err != nil {
			return fmt.Errorf("filter component: %w", err)
		}
		logger.Info("filtered graph", "nodes", g.NumNodes, "edges", g.NumEdges)
	}

	// Step 3: Serialize to binary.
	logger.Info("writing binary", "output", output, "codec", codec)
	if err := graph.WriteBinary(output, g, codec); err != nil {
		return fmt.Errorf("write binary: %w", err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	logger.Info("done",
		"elapsed", time.Since(start).Round(time.Second),
		"output", output,
		"size_mb", fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024)))
	return nil
}

// parseModes turns "car,foot" into an osm mode mask. Empty keeps all modes.
func parseModes(s string) (uint8, error) {
	var m uint8
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "":
		case "car":
			m |= osmparser.ModeCar
		case "bike":
			m |= osmparser.ModeBike
		case "foot":
			m |= osmparser.ModeFoot
		default:
			return 0, fmt.Errorf("unknown mode %q", name)
		}
	}
	return m, nil
}
