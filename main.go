package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appconfig "dasinsights/config"
	"dasinsights/logger"
	"dasinsights/metrics"
	"dasinsights/models"
	"dasinsights/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	snapshotDir := flag.String("snapshots", "snapshots", "Directory containing daily snapshot files")
	outputDir := flag.String("out", "", "Output directory for report artifacts (overrides config)")
	windowDays := flag.Int("window", -1, "Trailing ranking window in days (overrides config; 0 = full period)")
	topN := flag.Int("top", 0, "Number of cohorts per ranking table (overrides config)")
	placements := flag.Bool("placements", false, "Key cohorts by placement instead of device")
	reorders := flag.Bool("reorders", false, "Track pure bidder-list reordering as its own change kind")

	flag.Parse()

	cfg, err := appconfig.LoadConfig(*configPath)
	if err != nil {
		// APP_ENV decides which config file variant gets resolved.
		log.WithEnv("APP_ENV").WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *windowDays >= 0 {
		cfg.Analysis.WindowDays = *windowDays
	}
	if *topN > 0 {
		cfg.Analysis.TopN = *topN
	}
	if *placements {
		cfg.Analysis.PlacementCohorts = true
	}
	if *reorders {
		cfg.Analysis.TrackReorders = true
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Insights.Name,
		"version": cfg.Insights.Version,
		"env":     appconfig.AppEnvironment(),
	}).Info("starting das-insights")

	if cfg.Logging.CloudWatch {
		logger.InitCloudWatch("", cfg.Insights.Name, cfg.Logging.DashboardName)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Warn("shutdown signal received, cancelling run")
		cancel()
	}()

	logger.StartReport(ctx, log, 30*time.Second)

	start := time.Now()
	engine := metrics.NewEngine(cfg)
	result, err := engine.Run(ctx, *snapshotDir)
	if err != nil {
		var schemaErr *models.SchemaError
		switch {
		case errors.As(err, &schemaErr):
			log.WithError(err).Error("snapshot failed schema validation; aborting without partial output")
		case errors.Is(err, models.ErrInsufficientSnapshots):
			log.WithError(err).Error("change-velocity analysis needs at least two usable snapshots")
		default:
			log.WithError(err).Error("analysis run failed")
		}
		os.Exit(1)
	}

	reportWriter, err := writer.NewReportWriter(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create report writer")
		os.Exit(1)
	}
	if err := reportWriter.WriteAll(ctx, result); err != nil {
		log.WithError(err).Error("failed to write report artifacts")
		os.Exit(1)
	}

	logger.ReportFinal(ctx, log)
	log.WithFields(logger.Fields{
		"snapshots":   len(result.Dates),
		"day_pairs":   result.Aggregate.DayPairs,
		"output_dir":  cfg.Output.Dir,
		"duration_ms": float64(time.Since(start).Nanoseconds()) / 1e6,
	}).Info("das-insights run complete")
}
