package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/mnrates/ingest"
	"github.com/sig-0/mnrates/server/config"
	"github.com/sig-0/mnrates/storage"
	"github.com/sig-0/mnrates/storage/types"
)

// Ingestor runs on-demand ingestion
type Ingestor interface {
	// Run crawls and persists all banks for the date
	Run(ctx context.Context, date string) (*ingest.RunSummary, error)

	// RunOne crawls a single bank for the date, without persisting
	RunOne(ctx context.Context, bank, date string) (types.Quotes, error)
}

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type Server struct {
	logger   *slog.Logger
	config   *config.Config
	location *time.Location
	now      func() time.Time

	storage  storage.Storage
	ingestor Ingestor
	gatherer prometheus.Gatherer

	mux *chi.Mux
}

// New creates a new server instance
func New(storage storage.Storage, opts ...Option) (*Server, error) {
	s := &Server{
		logger:   noopLogger,
		storage:  storage,
		config:   config.DefaultConfig(),
		gatherer: prometheus.DefaultGatherer,
		now:      time.Now,
		mux:      chi.NewMux(),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	// Validate the configuration
	if err := config.ValidateConfig(s.config); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	loc, err := time.LoadLocation(s.config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unable to load timezone, %w", err)
	}

	s.location = loc

	// Set up the CORS middleware
	if s.config.CORSConfig != nil {
		corsMiddleware := cors.New(cors.Options{
			AllowedOrigins: s.config.CORSConfig.AllowedOrigins,
			AllowedMethods: s.config.CORSConfig.AllowedMethods,
			AllowedHeaders: s.config.CORSConfig.AllowedHeaders,
		})

		s.mux.Use(corsMiddleware.Handler)
	}

	s.mux.Use(httplog.RequestLogger(s.logger, &httplog.Options{
		Level:         slog.LevelInfo,
		Schema:        httplog.SchemaOTEL,
		RecoverPanics: true,
		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus == 404 || respStatus == 405 || r.URL.Path == "/health"
		},
	}))

	// Register the health check handler
	s.mux.Get("/health", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.mux.Get("/openapi.yaml", s.OpenAPI)
	s.mux.Get("/docs", s.Redoc)

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/rates", s.Rates)
		r.Get("/rates/latest", s.LatestRates)
		r.Get("/banks", s.Banks)
		r.Get("/banks/{bank}/rates/{date}", s.BankRates)

		if s.ingestor != nil {
			r.Get("/scrape/{bank}", s.ScrapeBank)
			r.Post("/scrape", s.Scrape)
		}
	})

	return s, nil
}

// ServeHTTP serves the request using the server mux
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve serves the mnrates service
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.mux,
		ReadHeaderTimeout: 60 * time.Second,
	}

	group, gCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer s.logger.Info("server shut down")

		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return err
		}

		s.logger.Info(
			fmt.Sprintf(
				"server started at %s",
				ln.Addr().String(),
			),
		)

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-gCtx.Done()

		s.logger.Info("server to be shutdown")

		wsCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		return server.Shutdown(wsCtx)
	})

	return group.Wait()
}
