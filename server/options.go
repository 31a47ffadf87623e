package server

import (
	"log/slog"

	"github.com/sig-0/krwrates/server/config"
	"github.com/sig-0/krwrates/storage/types"
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

// WithHistory specifies the historical series service for the server.
// Without it, the history endpoint is not registered
func WithHistory(h HistoryService) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithCurrencies overrides the served currency set
func WithCurrencies(currencies []types.Descriptor) Option {
	return func(s *Server) {
		s.currencies = currencies
	}
}
