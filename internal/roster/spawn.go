package roster

import (
	"context"

	"github.com/crewhq/crew/internal/backend"
	"github.com/crewhq/crew/internal/docstore"
	"github.com/crewhq/crew/internal/mailbox"
	"github.com/crewhq/crew/internal/team"
)

// palette is the fixed display-color rotation for teammates. Colors
// are assigned by teammate count at spawn time, so the first teammate
// is always blue and the ninth wraps back around.
var palette = [...]string{"blue", "green", "yellow", "purple", "orange", "pink", "cyan", "red"}

const agentTypeTeammate = "teammate"

// SpawnRequest describes one teammate to start.
type SpawnRequest struct {
	Team             string
	Name             string
	Prompt           string
	Backend          string // Registry name; empty picks the default backend
	Model            string // Tier or model name; empty picks the backend default
	Cwd              string // Defaults to the lead's working directory
	PlanModeRequired bool
}

// Spawn starts a teammate: resolve the backend and model, put the
// member on the roster, seed its inbox with the prompt as a direct
// message from the lead, and launch the process. The member is rolled
// back out of the config if anything past AddMember fails.
func (e *Engine) Spawn(ctx context.Context, req SpawnRequest) (team.Member, error) {
	cfg, err := e.teams.ReadConfig(req.Team)
	if err != nil {
		return team.Member{}, err
	}

	b, err := e.resolveBackend(req.Backend)
	if err != nil {
		return team.Member{}, err
	}
	model, err := b.ResolveModel(req.Model)
	if err != nil {
		return team.Member{}, err
	}

	cwd := req.Cwd
	if cwd == "" {
		if lead, ok := cfg.Member(team.LeadName); ok {
			cwd = lead.Cwd
		}
	}
	color := palette[teammateCount(cfg)%len(palette)]

	if _, err := e.teams.AddMember(ctx, req.Team, team.Member{
		Name:             req.Name,
		Backend:          b.Name(),
		Model:            model,
		Color:            color,
		Prompt:           req.Prompt,
		Cwd:              cwd,
		PlanModeRequired: req.PlanModeRequired,
	}); err != nil {
		return team.Member{}, err
	}

	spawned, err := e.launch(ctx, cfg, req, b, model, color, cwd)
	if err != nil {
		e.rollback(ctx, req.Team, req.Name)
		return team.Member{}, err
	}

	e.logger.WithTeam(req.Team).WithAgent(req.Name).WithOp("member.spawn").Info("teammate spawned",
		"backend", b.Name(), "model", model, "handle", spawned.ProcessHandle)
	return spawned, nil
}

// launch runs the half of a spawn that follows the roster write: inbox
// scaffolding, prompt delivery, the process itself, and the handle.
func (e *Engine) launch(ctx context.Context, cfg team.Config, req SpawnRequest, b backend.Backend, model, color, cwd string) (team.Member, error) {
	if err := e.mail.EnsureInbox(ctx, req.Team, req.Name); err != nil {
		return team.Member{}, err
	}
	if req.Prompt != "" {
		if _, err := e.mail.Send(ctx, req.Team, mailbox.SendRequest{
			Type: mailbox.MessageDirect,
			From: team.LeadName,
			To:   req.Name,
			Text: req.Prompt,
		}); err != nil {
			return team.Member{}, err
		}
	}

	handle, err := b.Spawn(ctx, backend.SpawnRequest{
		AgentID:          team.AgentID(req.Name, req.Team),
		Name:             req.Name,
		Team:             req.Team,
		Prompt:           req.Prompt,
		Model:            model,
		AgentType:        agentTypeTeammate,
		Color:            color,
		Cwd:              cwd,
		LeadSessionID:    cfg.LeadSessionID,
		PlanModeRequired: req.PlanModeRequired,
	})
	if err != nil {
		return team.Member{}, err
	}

	return e.teams.UpdateMember(ctx, req.Team, req.Name, func(m team.Member) (team.Member, error) {
		m.ProcessHandle = handle
		m.Status = team.StatusAlive
		return m, nil
	})
}

// rollback removes a half-spawned member and its inbox so a retry
// starts clean.
func (e *Engine) rollback(ctx context.Context, teamName, agent string) {
	if _, err := e.teams.RemoveMember(ctx, teamName, agent); err != nil {
		e.logger.WithTeam(teamName).WithAgent(agent).Warn("spawn rollback failed", "error", err)
	}
	_ = docstore.Remove(mailbox.InboxPath(e.root, teamName, agent))
}

func (e *Engine) resolveBackend(name string) (backend.Backend, error) {
	if name == "" {
		return e.backends.Default()
	}
	return e.backends.Get(name)
}

// teammateCount counts roster members excluding the reserved lead.
func teammateCount(cfg team.Config) int {
	count := 0
	for _, m := range cfg.Members {
		if !m.IsLead() {
			count++
		}
	}
	return count
}
