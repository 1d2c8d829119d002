package roster

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/team"
)

// probeConcurrency bounds the fan-out of HealthCheckAll and
// ShutdownAll.
const probeConcurrency = 8

// HealthCheck probes one teammate's process and persists the observed
// status. The lead runs no backend process, so its stored status comes
// back untouched.
func (e *Engine) HealthCheck(ctx context.Context, teamName, agent string) (team.Member, error) {
	cfg, err := e.teams.ReadConfig(teamName)
	if err != nil {
		return team.Member{}, err
	}
	m, ok := cfg.Member(agent)
	if !ok {
		return team.Member{}, errors.NewNotFoundError("member", agent)
	}
	if m.IsLead() {
		return m, nil
	}

	status, detail := e.probe(ctx, m)
	updated, err := e.teams.UpdateMember(ctx, teamName, agent, func(cur team.Member) (team.Member, error) {
		cur.Status = status
		return cur, nil
	})
	if err != nil {
		return team.Member{}, err
	}

	e.logger.WithTeam(teamName).WithAgent(agent).WithOp("member.health").Debug("health checked",
		"status", status.String(), "detail", detail)
	return updated, nil
}

// HealthCheckAll probes every teammate concurrently, persists the
// results, and returns the refreshed roster in config order. A probe
// that fails to persist leaves that member's stored value in place.
func (e *Engine) HealthCheckAll(ctx context.Context, teamName string) ([]team.Member, error) {
	cfg, err := e.teams.ReadConfig(teamName)
	if err != nil {
		return nil, err
	}

	members := make([]team.Member, len(cfg.Members))
	p := pool.New().WithMaxGoroutines(probeConcurrency)
	for i, m := range cfg.Members {
		p.Go(func() {
			if m.IsLead() {
				members[i] = m
				return
			}
			updated, err := e.HealthCheck(ctx, teamName, m.Name)
			if err != nil {
				members[i] = m
				return
			}
			members[i] = updated
		})
	}
	p.Wait()
	return members, nil
}

// probe resolves the member's backend and asks it about the recorded
// handle. A member with no handle or no resolvable backend counts as
// unknown rather than dead; nothing was observed either way.
func (e *Engine) probe(ctx context.Context, m team.Member) (team.MemberStatus, string) {
	if m.ProcessHandle == "" {
		return team.StatusUnknown, "no process handle recorded"
	}
	b, err := e.backends.Get(m.Backend)
	if err != nil {
		return team.StatusUnknown, fmt.Sprintf("backend %q not registered", m.Backend)
	}
	h, err := b.HealthCheck(ctx, m.ProcessHandle)
	if err != nil {
		return team.StatusUnknown, err.Error()
	}
	if h.Alive {
		return team.StatusAlive, h.Detail
	}
	return team.StatusDead, h.Detail
}

// ForceKill terminates a teammate's process immediately, removes it
// from the roster, and returns its claimed tasks to the pool. The kill
// itself is best-effort; the roster and task cleanup always run.
func (e *Engine) ForceKill(ctx context.Context, teamName, agent string) error {
	cfg, err := e.teams.ReadConfig(teamName)
	if err != nil {
		return err
	}
	m, ok := cfg.Member(agent)
	if !ok {
		return errors.NewNotFoundError("member", agent)
	}
	if m.IsLead() {
		return errors.New("roster: the team lead cannot be force-killed")
	}

	e.stopProcess(ctx, teamName, m, false)
	if _, err := e.teams.RemoveMember(ctx, teamName, agent); err != nil {
		return err
	}
	if err := e.tasks.ResetOwner(ctx, teamName, agent); err != nil {
		return err
	}

	e.logger.WithTeam(teamName).WithAgent(agent).WithOp("member.force_kill").Info("teammate killed")
	return nil
}

// RequestShutdown delivers a shutdown request to a teammate's inbox on
// the lead's behalf and returns the request id its response must
// carry. The member keeps running until CompleteShutdown.
func (e *Engine) RequestShutdown(ctx context.Context, teamName, agent, reason string) (string, error) {
	return e.mail.SendShutdownRequest(ctx, teamName, team.LeadName, agent, reason)
}

// CompleteShutdown finishes an approved shutdown: stop the process
// gracefully, drop the member from the roster, release its tasks.
func (e *Engine) CompleteShutdown(ctx context.Context, teamName, agent string) error {
	cfg, err := e.teams.ReadConfig(teamName)
	if err != nil {
		return err
	}
	m, ok := cfg.Member(agent)
	if !ok {
		return errors.NewNotFoundError("member", agent)
	}
	if m.IsLead() {
		return errors.New("roster: the team lead cannot be shut down")
	}

	e.stopProcess(ctx, teamName, m, true)
	if _, err := e.teams.RemoveMember(ctx, teamName, agent); err != nil {
		return err
	}
	if err := e.tasks.ResetOwner(ctx, teamName, agent); err != nil {
		return err
	}

	e.logger.WithTeam(teamName).WithAgent(agent).WithOp("member.shutdown").Info("teammate shut down")
	return nil
}

// ShutdownAll gracefully stops every teammate concurrently, leaving
// only the lead on the roster.
func (e *Engine) ShutdownAll(ctx context.Context, teamName string) error {
	cfg, err := e.teams.ReadConfig(teamName)
	if err != nil {
		return err
	}

	p := pool.New().WithErrors().WithMaxGoroutines(probeConcurrency)
	for _, m := range cfg.Members {
		if m.IsLead() {
			continue
		}
		p.Go(func() error {
			return e.CompleteShutdown(ctx, teamName, m.Name)
		})
	}
	return p.Wait()
}

// DeleteTeam tears the team down with a live backend probe, so a stale
// "alive" status cannot block deletion and a stale "dead" one cannot
// let it proceed while processes still run.
func (e *Engine) DeleteTeam(ctx context.Context, teamName string) error {
	return e.teams.Delete(ctx, teamName, func(m team.Member) team.MemberStatus {
		if m.IsLead() {
			return m.Status
		}
		status, _ := e.probe(ctx, m)
		return status
	})
}

// stopProcess takes a member's process down, gracefully or not. Errors
// are logged, never returned; a dead or unreachable process must not
// keep its member on the roster.
func (e *Engine) stopProcess(ctx context.Context, teamName string, m team.Member, graceful bool) {
	if m.ProcessHandle == "" {
		return
	}
	b, err := e.backends.Get(m.Backend)
	if err != nil {
		e.logger.WithTeam(teamName).WithAgent(m.Name).Warn("stop skipped", "error", err)
		return
	}
	if graceful {
		err = b.GracefulShutdown(ctx, m.ProcessHandle, 0)
	} else {
		err = b.Kill(ctx, m.ProcessHandle)
	}
	if err != nil {
		e.logger.WithTeam(teamName).WithAgent(m.Name).Warn("stop failed", "error", err)
	}
}
