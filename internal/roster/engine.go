package roster

import (
	"time"

	"github.com/crewhq/crew/internal/backend"
	"github.com/crewhq/crew/internal/docstore"
	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/logging"
	"github.com/crewhq/crew/internal/mailbox"
	"github.com/crewhq/crew/internal/task"
	"github.com/crewhq/crew/internal/team"
)

// Engine drives teammate lifecycles over one store root. It owns a
// team registry, a task engine, and a mailbox engine configured the
// same way, plus the backend registry processes are spawned through.
//
// Like the store engines it wraps, an Engine holds no state beyond its
// configuration; concurrent use from any number of processes is safe.
type Engine struct {
	root     string
	timeout  time.Duration
	logger   *logging.Logger
	backends *backend.Registry

	teams *team.Registry
	tasks *task.Engine
	mail  *mailbox.Engine
}

// NewEngine creates an Engine rooted at the given store directory.
func NewEngine(root string, backends *backend.Registry, opts ...Option) (*Engine, error) {
	if root == "" {
		return nil, errors.New("roster: root directory is required")
	}
	if backends == nil {
		return nil, errors.New("roster: backend registry is required")
	}

	e := &Engine{
		root:     root,
		timeout:  docstore.DefaultLockTimeout,
		logger:   logging.NopLogger(),
		backends: backends,
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.teams, err = team.NewRegistry(root, team.WithLogger(e.logger), team.WithLockTimeout(e.timeout)); err != nil {
		return nil, err
	}
	if e.tasks, err = task.NewEngine(root, task.WithLogger(e.logger), task.WithLockTimeout(e.timeout)); err != nil {
		return nil, err
	}
	if e.mail, err = mailbox.NewEngine(root, mailbox.WithLogger(e.logger), mailbox.WithLockTimeout(e.timeout)); err != nil {
		return nil, err
	}
	return e, nil
}

// Root returns the store root this engine operates on.
func (e *Engine) Root() string {
	return e.root
}

// Teams returns the team registry sharing this engine's configuration.
func (e *Engine) Teams() *team.Registry {
	return e.teams
}

// Tasks returns the task engine sharing this engine's configuration.
func (e *Engine) Tasks() *task.Engine {
	return e.tasks
}

// Mail returns the mailbox engine sharing this engine's configuration.
func (e *Engine) Mail() *mailbox.Engine {
	return e.mail
}

// Backends returns the backend registry spawns go through.
func (e *Engine) Backends() *backend.Registry {
	return e.backends
}
