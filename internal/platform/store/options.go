package store

import (
	"github.com/prometheus/client_golang/prometheus"

	"timejar/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients and the SQL log tracer
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithRegisterer records postgres statement latency on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Store) error {
		s.metrics = reg
		return nil
	}
}
