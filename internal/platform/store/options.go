package store

import "stackscout/internal/platform/logger"

// Option adjusts a Store before its backends open
type Option func(*Store)

// WithLogger replaces the root logger used for query tracing
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.Log = log }
}
