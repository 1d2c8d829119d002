package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/crewhq/crew/internal/logging"
)

// ErrUnknownBackend is returned when a requested backend is not
// registered.
var ErrUnknownBackend = errors.New("unknown backend")

// Registry holds the backends this process can spawn agents with,
// keyed by name.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	logger   *logging.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		backends: make(map[string]Backend),
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadBuiltins registers every builtin backend whose binary is on
// PATH. The tmux-hosted builtins also need a tmux binary; their pty
// variants register regardless, so machines without tmux still spawn.
func (r *Registry) LoadBuiltins() {
	builtins := []Backend{NewClaudeCode(), NewCodex()}
	haveTmux := binaryOnPath("tmux")
	for _, b := range builtins {
		if !b.Available() {
			r.logger.Debug("backend binary not on PATH", "backend", b.Name(), "binary", b.Binary())
			continue
		}
		if haveTmux {
			r.Register(b)
		}
		r.Register(NewPTYRunner(b))
	}
}

// LoadCustom registers every declaration from a backends.yaml. A
// missing file registers nothing.
func (r *Registry) LoadCustom(path string) error {
	customs, err := LoadCustomFile(path)
	if err != nil {
		return err
	}
	for _, b := range customs {
		r.Register(b)
		r.logger.Debug("custom backend registered", "backend", b.Name(), "binary", b.Binary())
	}
	return nil
}

// Register adds or replaces a backend under its name.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

// Get returns the backend registered under name. Failures name the
// registered set so a typo is obvious.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.backends[name]; ok {
		return b, nil
	}
	available := "none"
	if names := r.namesLocked(); len(names) > 0 {
		available = strings.Join(names, ", ")
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownBackend, name, available)
}

// Default picks the backend used when a spawn names none: claude-code
// when registered, its pty variant next, then the first registered
// name in sorted order.
func (r *Registry) Default() (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range []string{claudeCodeName, claudeCodeName + "-pty"} {
		if b, ok := r.backends[name]; ok {
			return b, nil
		}
	}
	names := r.namesLocked()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: nothing registered (is an agent CLI installed?)", ErrUnknownBackend)
	}
	return r.backends[names[0]], nil
}

// Names lists the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// All returns the registered backends sorted by name.
func (r *Registry) All() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Backend, 0, len(r.backends))
	for _, name := range r.namesLocked() {
		all = append(all, r.backends[name])
	}
	return all
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
