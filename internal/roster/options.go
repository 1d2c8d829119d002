package roster

import (
	"time"

	"github.com/crewhq/crew/internal/logging"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for lifecycle operations and handed
// down to the store engines. The default discards all output.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLockTimeout overrides the lock acquisition budget handed down to
// the store engines. The default is docstore.DefaultLockTimeout.
func WithLockTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}
