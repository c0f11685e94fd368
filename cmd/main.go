package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zachdehooge/pothole-dashboard/internal/aggregator"
	"github.com/Zachdehooge/pothole-dashboard/internal/config"
	"github.com/Zachdehooge/pothole-dashboard/internal/dashboard"
	"github.com/Zachdehooge/pothole-dashboard/internal/fetcher"
	"github.com/Zachdehooge/pothole-dashboard/internal/logger"
	"github.com/Zachdehooge/pothole-dashboard/internal/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath   string
	mapOutput    string
	reportOutput string
	verbose      bool
	interval     int
	watchMode    bool
	serveMode    bool
)

// app is everything a command needs once config is loaded.
type app struct {
	cfg      *config.Config
	source   *fetcher.Client
	dash     *dashboard.Dashboard
	registry *prometheus.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "potholes",
		Short: "Fetch open pothole reports and generate a map and summary",
		Long: `Potholes fetches open pothole complaints from the Little Rock open data
portal and generates an interactive map and an HTML summary of the
streets and intersections with the most reports.`,
		Run: func(cmd *cobra.Command, args []string) {
			a, err := setup(cmd)
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}

			// Generate the dashboard once; watch mode keeps going on failure
			if err := generate(cmd.Context(), cmd, a); err != nil {
				cmd.PrintErrln(fmt.Errorf("failed to generate dashboard: %w", err))
				if !watching() {
					os.Exit(1)
				}
			}

			// Watch mode
			if watching() {
				runWatchMode(cmd.Context(), cmd, a)
			}
		},
	}

	// Flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (environment only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().StringVar(&mapOutput, "map-output", "map.html", "Output map HTML file path")
	rootCmd.Flags().StringVar(&reportOutput, "report-output", "stats.html", "Output summary HTML file path")
	rootCmd.Flags().IntVarP(&interval, "interval", "i", 300, "Update interval in seconds (minimum 30)")
	rootCmd.Flags().BoolVar(&watchMode, "watch", false, "Continuously regenerate the dashboard")
	rootCmd.Flags().BoolVar(&serveMode, "serve", false, "Serve the dashboard and metrics over HTTP (implies --watch)")

	// Additional commands
	addListCmd(rootCmd)
	addCategoriesCmd(rootCmd)

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// watching reports whether the root command keeps running; --serve implies --watch.
func watching() bool {
	return watchMode || serveMode
}

// setup loads config, applies flags that were set explicitly, and wires the
// dashboard.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("map-output") {
		cfg.Output.MapPath = mapOutput
	}
	if flags.Changed("report-output") {
		cfg.Output.ReportPath = reportOutput
	}
	if flags.Changed("interval") {
		cfg.Watch.Interval = time.Duration(interval) * time.Second
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	environment := cfg.Environment
	if verbose {
		environment = logger.DevelopmentEnvironment
	}
	logger.Setup(environment)

	agg, err := aggregator.New(
		aggregator.WithStreetLimit(cfg.Ranking.StreetLimit),
		aggregator.WithIntersectionCutoff(cfg.Ranking.IntersectionCutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregator: %w", err)
	}

	source := fetcher.New(&http.Client{Timeout: cfg.Fetch.Timeout}, fetcher.Options{
		BaseURL:       cfg.Fetch.BaseURL,
		Limit:         cfg.Fetch.Limit,
		Where:         cfg.Fetch.Where,
		Order:         cfg.Fetch.Order,
		CategoryLimit: cfg.Fetch.CategoryLimit,
		MaxRetries:    cfg.Fetch.MaxRetries,
		UserAgent:     cfg.Fetch.UserAgent,
		AppToken:      cfg.Fetch.AppToken,
	})

	registry := prometheus.NewRegistry()
	dash := dashboard.New(dashboard.Deps{
		Source:     source,
		Aggregator: agg,
		Metrics:    metrics.New(registry),
		Gatherer:   registry,
	}, dashboard.Options{
		MapPath:         cfg.Output.MapPath,
		ReportPath:      cfg.Output.ReportPath,
		MetricsTextfile: cfg.Output.MetricsTextfile,
		CenterLat:       cfg.Map.CenterLat,
		CenterLon:       cfg.Map.CenterLon,
		Zoom:            cfg.Map.Zoom,
	})

	return &app{cfg: cfg, source: source, dash: dash, registry: registry}, nil
}

// withRunID gives each build its own correlation id in the logs.
func withRunID(ctx context.Context) context.Context {
	return logger.WithFields(ctx, zap.String("run_id", uuid.NewString()))
}

// generate builds the map and the summary once
func generate(ctx context.Context, cmd *cobra.Command, a *app) error {
	ctx = withRunID(ctx)
	if logger.IsDebug(ctx) {
		cmd.Println("Fetching open pothole reports...")
	}

	report, err := a.dash.Build(ctx)
	if err != nil {
		return err
	}

	cmd.Println(fmt.Sprintf("Map saved to %s (%d markers)", a.cfg.Output.MapPath, report.Markers))
	cmd.Println(fmt.Sprintf("Dashboard saved to %s (%d active potholes)", a.cfg.Output.ReportPath, report.Total))
	return nil
}
