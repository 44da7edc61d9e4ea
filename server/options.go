package server

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sig-0/mnrates/server/config"
)

type Option func(s *Server)

// WithLogger specifies the logger for the server
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithConfig specifies the config for the server
func WithConfig(c *config.Config) Option {
	return func(s *Server) {
		s.config = c
	}
}

// WithIngestor enables the scrape endpoints, backed by the ingestor
func WithIngestor(i Ingestor) Option {
	return func(s *Server) {
		s.ingestor = i
	}
}

// WithGatherer specifies the metrics exposed at /metrics.
// Defaults to the global prometheus registry
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}
