package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-competitors/config"
	"github.com/aluiziolira/go-scrape-competitors/pipeline"
	"github.com/aluiziolira/go-scrape-competitors/scraper"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	configPath    string
	outputDir     string
	reportsDir    string
	maxItems      int
	delay         time.Duration
	timeout       time.Duration
	parallel      int
	format        string
	userAgent     string
	metricsAddr   string
	respectRobots bool
	verbose       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:          "tracker",
		Short:        "Scrape competitor news pages and write a digest report.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if err := godotenv.Load(); err != nil {
				slog.Debug("no .env file loaded", slog.Any("error", err))
			}
			verbose := opts.verbose
			if value, ok, _ := config.EnvBool(config.EnvVerbose); ok && !cmd.Flags().Changed("verbose") {
				verbose = value
			}
			slog.SetDefault(newLogger(verbose))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			return runScrape(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "config.json", "Configuration file (JSON5 or YAML)")
	flags.StringVar(&opts.outputDir, "output-dir", defaults.OutputDir, "Directory for structured output")
	flags.StringVar(&opts.reportsDir, "reports-dir", defaults.ReportsDir, "Directory for Markdown reports")
	flags.IntVar(&opts.maxItems, "max-items", defaults.MaxItems, "Items kept per target unless the target overrides it")
	flags.DurationVar(&opts.delay, "delay", defaults.Delay, "Delay between requests")
	flags.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Request timeout")
	flags.IntVar(&opts.parallel, "parallel", defaults.Parallelism, "Targets fetched concurrently")
	flags.StringVar(&opts.format, "format", "json,markdown", "Comma separated output formats: json, markdown, csv")
	flags.StringVar(&opts.userAgent, "user-agent", defaults.UserAgent, "User-Agent header")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolVar(&opts.respectRobots, "respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newTargetsCmd(opts))
	return cmd
}

// buildConfig layers defaults, the config file, SCRAPER_* variables and
// explicitly set flags, in that order.
func buildConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	path := opts.configPath
	if value, ok := config.EnvString(config.EnvConfigPath); ok && !flags.Changed("config") {
		path = value
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if flags.Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if flags.Changed("reports-dir") {
		cfg.ReportsDir = opts.reportsDir
	}
	if flags.Changed("max-items") {
		cfg.MaxItems = opts.maxItems
	}
	if flags.Changed("delay") {
		cfg.Delay = opts.delay
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("parallel") {
		cfg.Parallelism = opts.parallel
	}
	if flags.Changed("format") {
		cfg.OutputFormats = config.ParseFormats(opts.format)
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = opts.userAgent
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("respect-robots") {
		cfg.RespectRobotsTxt = opts.respectRobots
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runScrape(ctx context.Context, cfg *config.Config, opts ...scraper.Option) error {
	slog.Info("starting scrape",
		slog.Int("targets", len(cfg.Targets)),
		slog.Int("workers", cfg.Parallelism),
		slog.Int("max_items", cfg.MaxItems),
	)

	s, err := scraper.NewScraper(cfg, opts...)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	startTime := time.Now()
	writer, paths, err := pipeline.NewWriters(cfg, startTime)
	if err != nil {
		return fmt.Errorf("creating writers: %w", err)
	}

	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		writer.Close()
		return fmt.Errorf("creating pipeline: %w", err)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, remaining targets will be skipped")
	}()

	metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)

	result, err := s.Run(ctx, p)
	if err != nil {
		p.Close()
		return fmt.Errorf("scraping failed: %w", err)
	}

	if err := p.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, time.Since(startTime), paths, p.GetMetrics())
	return nil
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}
