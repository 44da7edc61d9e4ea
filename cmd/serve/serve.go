package serve

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/mnrates/cmd/env"
	"github.com/sig-0/mnrates/cmd/pipeline"
	"github.com/sig-0/mnrates/cmd/store"
	"github.com/sig-0/mnrates/server"
	"github.com/sig-0/mnrates/server/config"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config   *config.Config
	pipeline *pipeline.Config

	storeCfg store.Config
	logCfg   env.LogConfig

	configPath string
	noSchedule bool
}

// NewServeCmd creates the serve command
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config:   config.DefaultConfig(),
		pipeline: pipeline.NewConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve [flags]",
		LongHelp:   "Serves the mnrates API, and runs the scheduled ingestion",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.config.ListenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the server",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the server TOML configuration, if any",
	)

	fs.BoolVar(
		&c.noSchedule,
		"no-schedule",
		false,
		"flag indicating if the scheduled ingestion is disabled",
	)

	c.storeCfg.RegisterFlags(fs, store.DriverPostgres)
	c.logCfg.RegisterFlags(fs)
	c.pipeline.RegisterFlags(fs)
}

// exec executes the serve command
func (c *serveCfg) exec(ctx context.Context, _ []string) error {
	// Read the server configuration, if any
	if c.configPath != "" {
		serverCfg, err := config.Read(c.configPath)
		if err != nil {
			return fmt.Errorf("unable to read server config, %w", err)
		}

		c.config = serverCfg
	}

	// Create a new logger
	logger, err := env.NewLogger(c.logCfg)
	if err != nil {
		return fmt.Errorf("unable to create logger, %w", err)
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	ingestCfg, err := c.pipeline.Load()
	if err != nil {
		return err
	}

	// Open the storage
	s, closeFn, err := store.Open(ctx, c.storeCfg, logger)
	if err != nil {
		return fmt.Errorf("unable to open storage, %w", err)
	}

	defer closeFn()

	// Set up the metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Create the ingestion pipeline
	orchestrator, err := pipeline.NewOrchestrator(ingestCfg, s, logger, reg)
	if err != nil {
		return fmt.Errorf("unable to create orchestrator, %w", err)
	}

	scheduler, err := pipeline.NewScheduler(ingestCfg, orchestrator, logger)
	if err != nil {
		return fmt.Errorf("unable to create scheduler, %w", err)
	}

	// Create the server instance
	srv, err := server.New(
		s,
		server.WithLogger(logger),
		server.WithConfig(c.config),
		server.WithIngestor(orchestrator),
		server.WithGatherer(reg),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return srv.Serve(gCtx)
	})

	// Start the ingestion schedule
	if !c.noSchedule {
		group.Go(func() error {
			return scheduler.Start(gCtx)
		})
	}

	return group.Wait()
}
