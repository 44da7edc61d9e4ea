// Package pipeline assembles the ingestion pipeline from the command flags
package pipeline

import (
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sig-0/mnrates/ingest"
	"github.com/sig-0/mnrates/ingest/config"
	"github.com/sig-0/mnrates/metrics"
	"github.com/sig-0/mnrates/provider/mn"
	"github.com/sig-0/mnrates/storage"
	"github.com/sig-0/mnrates/transport"
)

// Config wraps the ingestion configuration and its flag overrides
type Config struct {
	config *config.Config

	configPath string
	bankURLs   map[string]*string // lowercase bank -> flag value
}

// NewConfig creates a pipeline configuration with the defaults
func NewConfig() *Config {
	return &Config{
		config:   config.DefaultConfig(),
		bankURLs: make(map[string]*string, len(mn.Banks)),
	}
}

// RegisterFlags registers the ingestion flags, including
// a -<bank>-uri source override for every bank
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.configPath,
		"ingest-config",
		"",
		"the path to the ingestion TOML configuration, if any",
	)

	fs.StringVar(
		&c.config.Schedule,
		"schedule",
		config.DefaultSchedule,
		"the cron expression of the daily ingestion run",
	)

	fs.StringVar(
		&c.config.Timezone,
		"timezone",
		config.DefaultTimezone,
		"the reporting timezone of the run dates",
	)

	fs.StringVar(
		&c.config.ArigBankToken,
		"arigbank-token",
		"",
		"the bearer token of the ArigBank rate API",
	)

	fs.StringVar(
		&c.config.ChromePath,
		"chrome-path",
		"",
		"the Chrome / Chromium binary used for rendering, if not on the path",
	)

	fs.DurationVar(
		&c.config.RequestTimeout,
		"request-timeout",
		config.DefaultRequestTimeout,
		"the timeout of a single direct request",
	)

	fs.IntVar(
		&c.config.RenderTimeoutMS,
		"render-timeout-ms",
		config.DefaultRenderTimeoutMS,
		"the timeout of a single rendered page, in milliseconds",
	)

	fs.DurationVar(
		&c.config.AdapterTimeout,
		"adapter-timeout",
		config.DefaultAdapterTimeout,
		"the timeout of a single bank crawl",
	)

	fs.IntVar(
		&c.config.DirectWorkers,
		"direct-workers",
		config.DefaultDirectWorkers,
		"the number of concurrent direct crawls",
	)

	fs.IntVar(
		&c.config.RenderedWorkers,
		"rendered-workers",
		config.DefaultRenderedWorkers,
		"the number of concurrent rendered crawls",
	)

	fs.BoolVar(
		&c.config.VerifyTLS,
		"verify-tls",
		false,
		"flag indicating if source TLS certificates are verified",
	)

	fs.BoolVar(
		&c.config.RunOnStart,
		"run-on-start",
		false,
		"flag indicating if an ingestion run is triggered at startup",
	)

	for _, bank := range mn.Banks {
		key := strings.ToLower(bank)

		c.bankURLs[key] = fs.String(
			key+"-uri",
			"",
			fmt.Sprintf("the %s source URL override", bank),
		)
	}
}

// Load resolves the final ingestion configuration.
// The TOML file, if any, replaces the flag values,
// and the bank URL flags override the file
func (c *Config) Load() (*config.Config, error) {
	cfg := c.config

	if c.configPath != "" {
		fileCfg, err := config.Read(c.configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read ingestion config, %w", err)
		}

		cfg = fileCfg
	}

	if cfg.BankURLs == nil {
		cfg.BankURLs = make(map[string]string)
	}

	for key, value := range c.bankURLs {
		if value != nil && *value != "" {
			cfg.BankURLs[key] = *value
		}
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid ingestion configuration, %w", err)
	}

	return cfg, nil
}

// NewOrchestrator creates the orchestrator with every bank adapter registered.
// Metrics are registered with reg, if set
func NewOrchestrator(
	cfg *config.Config,
	store storage.Storage,
	logger *slog.Logger,
	reg prometheus.Registerer,
) (*ingest.Orchestrator, error) {
	var (
		fetcher  = transport.NewDirect(cfg.VerifyTLS, cfg.RequestTimeout)
		renderer = transport.NewRenderer(
			cfg.VerifyTLS,
			cfg.RenderTimeout(),
			transport.WithExecPath(cfg.ChromePath),
			transport.WithRendererLogger(logger),
		)
	)

	opts := []ingest.Option{
		ingest.WithLogger(logger),
		ingest.WithWorkers(cfg.DirectWorkers, cfg.RenderedWorkers),
		ingest.WithAdapterTimeout(cfg.AdapterTimeout),
	}

	if reg != nil {
		opts = append(opts, ingest.WithMetrics(metrics.New(reg)))
	}

	orchestrator := ingest.New(store, opts...)

	adapters := mn.NewAdapters(
		mn.Config{
			URLs:          cfg.BankURLs,
			ArigBankToken: cfg.ArigBankToken,
		},
		fetcher,
		renderer,
	)

	for _, a := range adapters {
		if err := orchestrator.Register(a, a.Aliases()...); err != nil {
			return nil, fmt.Errorf("unable to register adapter: %w", err)
		}
	}

	return orchestrator, nil
}

// NewScheduler creates the daily run scheduler
func NewScheduler(
	cfg *config.Config,
	runner ingest.Runner,
	logger *slog.Logger,
) (*ingest.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	opts := []ingest.SchedulerOption{
		ingest.WithSchedulerLogger(logger),
		ingest.WithLocation(loc),
	}

	if cfg.RunOnStart {
		opts = append(opts, ingest.WithRunOnStart())
	}

	return ingest.NewScheduler(runner, cfg.Schedule, opts...)
}
