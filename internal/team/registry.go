package team

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/crewhq/crew/internal/docstore"
	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/logging"
	"github.com/crewhq/crew/internal/task"
	"github.com/google/uuid"
)

// HealthProbe reports a member's current liveness. Delete calls it for
// every member before tearing a team down; a nil probe means the last
// stored statuses are trusted as-is.
type HealthProbe func(Member) MemberStatus

// Registry manages team documents under a store root.
//
// A Registry is stateless apart from its configuration; every operation
// goes to disk, so any number of Registry values across any number of
// processes may work on the same root concurrently.
type Registry struct {
	root    string
	timeout time.Duration
	logger  *logging.Logger
}

// NewRegistry creates a Registry rooted at the given store directory.
func NewRegistry(root string, opts ...Option) (*Registry, error) {
	if root == "" {
		return nil, errors.New("team: root directory is required")
	}

	r := &Registry{
		root:    root,
		timeout: docstore.DefaultLockTimeout,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the store root this registry operates on.
func (r *Registry) Root() string {
	return r.root
}

// CreateOptions configures team creation. The zero value is valid: an
// empty LeadSessionID gets a generated UUID.
type CreateOptions struct {
	Description   string
	LeadSessionID string // Session handle of the creating lead; generated when empty
	LeadModel     string // Model identifier recorded for the lead member
	Cwd           string // Working directory recorded for the lead member
}

// Create writes a fresh team config seeded with the reserved team-lead
// member and scaffolds the team's task directory with its id counter.
// A team with the same name must not already exist.
func (r *Registry) Create(ctx context.Context, name string, opts CreateOptions) (Config, error) {
	if err := ValidateName("team", name); err != nil {
		return Config{}, err
	}

	if err := docstore.EnsureDir(Dir(r.root, name)); err != nil {
		return Config{}, err
	}

	sessionID := opts.LeadSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := time.Now().UnixMilli()

	cfg, err := docstore.Modify(ctx, ConfigPath(r.root, name), LockPath(r.root, name), r.timeout,
		func(cur Config, exists bool) (Config, error) {
			if exists {
				return cur, errors.NewAlreadyExistsError("team", name)
			}
			return Config{
				Name:          name,
				Description:   opts.Description,
				CreatedAt:     now,
				LeadAgentID:   AgentID(LeadName, name),
				LeadSessionID: sessionID,
				Members: []Member{{
					AgentID:  AgentID(LeadName, name),
					Name:     LeadName,
					Model:    opts.LeadModel,
					Status:   StatusUnknown,
					JoinedAt: now,
					Cwd:      opts.Cwd,
				}},
			}, nil
		})
	if err != nil {
		return Config{}, err
	}

	if err := task.InitTeamDir(r.root, name); err != nil {
		// A team without a task directory is unusable; undo the half-made
		// create so the caller can retry cleanly.
		_ = os.RemoveAll(Dir(r.root, name))
		return Config{}, err
	}

	r.logger.WithTeam(name).WithOp("team.create").Info("team created",
		"lead_session_id", cfg.LeadSessionID)
	return cfg, nil
}

// Delete tears a team down: the config document, its inboxes, and its task
// directory. It refuses while any member's health is alive. probe supplies
// fresh liveness per member; when nil, the statuses stored in the config
// are used.
func (r *Registry) Delete(ctx context.Context, name string, probe HealthProbe) error {
	if err := r.requireTeam(name); err != nil {
		return err
	}

	err := docstore.WithLock(ctx, LockPath(r.root, name), r.timeout, func() error {
		cfg, err := r.readConfig(name)
		if err != nil {
			return err
		}

		var alive []string
		for _, m := range cfg.Members {
			status := m.Status
			if probe != nil {
				status = probe(m)
			}
			if status == StatusAlive {
				alive = append(alive, m.Name)
			}
		}
		if len(alive) > 0 {
			return errors.NewTeammatesActiveError(name, alive)
		}

		// Removing the directory takes the held lock file with it. Racing
		// operations fail with NotFound once the config is gone; nothing
		// recreates it.
		if err := os.RemoveAll(Dir(r.root, name)); err != nil {
			return errors.NewIOError("remove", Dir(r.root, name), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := task.RemoveTeamDir(r.root, name); err != nil {
		return err
	}

	r.logger.WithTeam(name).WithOp("team.delete").Info("team deleted")
	return nil
}

// ReadConfig returns the team's config document.
func (r *Registry) ReadConfig(name string) (Config, error) {
	if err := ValidateName("team", name); err != nil {
		return Config{}, err
	}
	return r.readConfig(name)
}

// readConfig reads the config without taking the lock. Atomic replacement
// keeps bare reads consistent; callers needing read-modify-write go
// through modifyConfig instead.
func (r *Registry) readConfig(name string) (Config, error) {
	cfg, err := docstore.Read[Config](ConfigPath(r.root, name))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Config{}, errors.NewNotFoundError("team", name).WithCause(err)
		}
		return Config{}, err
	}
	return cfg, nil
}

// Exists reports whether a team with the given name exists.
func (r *Registry) Exists(name string) (bool, error) {
	if err := ValidateName("team", name); err != nil {
		return false, err
	}
	return docstore.Exists(ConfigPath(r.root, name))
}

// requireTeam maps a missing team to NotFound before any lock on the
// team's directory is attempted; the lock file's parent must exist for
// acquisition to work at all.
func (r *Registry) requireTeam(name string) error {
	if err := ValidateName("team", name); err != nil {
		return err
	}
	ok, err := docstore.Exists(ConfigPath(r.root, name))
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("team", name)
	}
	return nil
}

// List returns the names of all teams under the root, sorted. A root with
// no teams directory yields an empty list.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(Dir(r.root, ""))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError("readdir", Dir(r.root, ""), err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ok, err := docstore.Exists(ConfigPath(r.root, e.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// modifyConfig runs fn on the team's config under its lock. The team must
// exist both before and under the lock; fn sees the current document and
// returns the replacement.
func (r *Registry) modifyConfig(ctx context.Context, name string, fn func(Config) (Config, error)) (Config, error) {
	if err := r.requireTeam(name); err != nil {
		return Config{}, err
	}
	return docstore.Modify(ctx, ConfigPath(r.root, name), LockPath(r.root, name), r.timeout,
		func(cur Config, exists bool) (Config, error) {
			if !exists {
				return cur, errors.NewNotFoundError("team", name)
			}
			return fn(cur)
		})
}

// AddMember appends a member to the team's roster. The name must pass the
// naming rules, must not collide with an existing member, and must not be
// the reserved lead name. Zero AgentID, Status and JoinedAt fields are
// filled in.
func (r *Registry) AddMember(ctx context.Context, teamName string, m Member) (Config, error) {
	if err := ValidateName("agent", m.Name); err != nil {
		return Config{}, err
	}
	if m.Name == LeadName {
		return Config{}, errors.NewInvalidNameError("agent", m.Name, "name is reserved")
	}
	if m.Status != "" && !m.Status.IsValid() {
		return Config{}, fmt.Errorf("team: invalid member status %q", m.Status)
	}

	if m.AgentID == "" {
		m.AgentID = AgentID(m.Name, teamName)
	}
	if m.Status == "" {
		m.Status = StatusUnknown
	}
	if m.JoinedAt == 0 {
		m.JoinedAt = time.Now().UnixMilli()
	}

	cfg, err := r.modifyConfig(ctx, teamName, func(cur Config) (Config, error) {
		if _, dup := cur.Member(m.Name); dup {
			return cur, errors.NewAlreadyExistsError("member", m.Name)
		}
		cur.Members = append(cur.Members, m)
		return cur, nil
	})
	if err != nil {
		return Config{}, err
	}

	r.logger.WithTeam(teamName).WithAgent(m.Name).WithOp("member.add").Info("member added",
		"backend", m.Backend, "model", m.Model)
	return cfg, nil
}

// RemoveMember drops a member from the roster. The reserved team-lead
// member cannot be removed; deleting the team is the only way out.
func (r *Registry) RemoveMember(ctx context.Context, teamName, name string) (Config, error) {
	if err := ValidateName("agent", name); err != nil {
		return Config{}, err
	}
	if name == LeadName {
		return Config{}, errors.NewInvalidNameError("agent", name, "the team lead cannot be removed")
	}

	cfg, err := r.modifyConfig(ctx, teamName, func(cur Config) (Config, error) {
		kept := make([]Member, 0, len(cur.Members))
		found := false
		for _, m := range cur.Members {
			if m.Name == name {
				found = true
				continue
			}
			kept = append(kept, m)
		}
		if !found {
			return cur, errors.NewNotFoundError("member", name)
		}
		cur.Members = kept
		return cur, nil
	})
	if err != nil {
		return Config{}, err
	}

	r.logger.WithTeam(teamName).WithAgent(name).WithOp("member.remove").Info("member removed")
	return cfg, nil
}

// UpdateMember applies a targeted mutation to one member under the config
// lock. fn receives the current member value and returns the replacement;
// the name must stay the same. Used to record process handles and health
// statuses.
func (r *Registry) UpdateMember(ctx context.Context, teamName, name string, fn func(Member) (Member, error)) (Member, error) {
	if err := ValidateName("agent", name); err != nil {
		return Member{}, err
	}

	var updated Member
	_, err := r.modifyConfig(ctx, teamName, func(cur Config) (Config, error) {
		for i, m := range cur.Members {
			if m.Name != name {
				continue
			}
			next, err := fn(m)
			if err != nil {
				return cur, err
			}
			if next.Name != name {
				return cur, errors.NewInvalidNameError("agent", next.Name, "member name cannot change")
			}
			cur.Members[i] = next
			updated = next
			return cur, nil
		}
		return cur, errors.NewNotFoundError("member", name)
	})
	if err != nil {
		return Member{}, err
	}
	return updated, nil
}
