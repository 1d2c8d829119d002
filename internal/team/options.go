package team

import (
	"time"

	"github.com/crewhq/crew/internal/logging"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry operations. The default
// discards all output.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLockTimeout overrides the lock acquisition budget for config
// modifications. The default is docstore.DefaultLockTimeout.
func WithLockTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		r.timeout = timeout
	}
}
