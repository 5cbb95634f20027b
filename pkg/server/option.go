package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/pagehub/pagehub/pkg/storage"
)

type Option func(s *Server) error

// WithAddr returns an Option which set the server listening address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.Addr = addr
		return nil
	}
}

// WithDriver returns an Option which registers the storage driver serving
// the given bucket.
func WithDriver(bucket string, d storage.Driver) Option {
	return func(s *Server) error {
		s.drivers[bucket] = d
		return nil
	}
}

// WithWriteRetry returns an Option which bounds how long the server keeps
// retrying a failed backend write before giving up. Zero disables retries.
func WithWriteRetry(maxElapsed time.Duration) Option {
	return func(s *Server) error {
		s.writeRetryMax = maxElapsed
		return nil
	}
}

// WithLogger returns an Option which set the logger for Server.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}
