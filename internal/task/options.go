package task

import (
	"time"

	"github.com/crewhq/crew/internal/logging"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for engine operations. The default
// discards all output.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLockTimeout overrides the lock acquisition budget for graph
// mutations. The default is docstore.DefaultLockTimeout.
func WithLockTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}
