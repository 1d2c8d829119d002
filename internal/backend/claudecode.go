package backend

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const claudeCodeName = "claude-code"

// claudeModels maps tiers and bare model names onto the models the
// Claude Code CLI accepts. The CLI rejects anything else, so resolve
// does too.
var claudeModels = map[string]string{
	TierFast:     "haiku",
	TierBalanced: "sonnet",
	TierPowerful: "opus",
	"haiku":      "haiku",
	"sonnet":     "sonnet",
	"opus":       "opus",
}

// ClaudeCode runs agents with the Claude Code CLI in crew tmux panes.
// The initial prompt is not part of the command line; callers seed the
// agent's inbox instead.
type ClaudeCode struct {
	binary string
}

// NewClaudeCode creates the claude-code backend.
func NewClaudeCode() *ClaudeCode {
	return &ClaudeCode{binary: "claude"}
}

func (b *ClaudeCode) Name() string { return claudeCodeName }

func (b *ClaudeCode) Binary() string { return b.binary }

func (b *ClaudeCode) Available() bool { return binaryOnPath(b.binary) }

func (b *ClaudeCode) DiscoverBinary() (string, error) { return lookPath(claudeCodeName, b.binary) }

func (b *ClaudeCode) SupportedModels() []string { return []string{"haiku", "sonnet", "opus"} }

func (b *ClaudeCode) DefaultModel() string { return "sonnet" }

func (b *ClaudeCode) ResolveModel(name string) (string, error) {
	if name == "" {
		return b.DefaultModel(), nil
	}
	if model, ok := claudeModels[name]; ok {
		return model, nil
	}
	return "", fmt.Errorf("backend %s: unsupported model %q (supported: %s)",
		claudeCodeName, name, strings.Join(b.SupportedModels(), ", "))
}

func (b *ClaudeCode) BuildCommand(req SpawnRequest) ([]string, error) {
	if req.AgentID == "" {
		return nil, fmt.Errorf("backend %s: agent id required", claudeCodeName)
	}
	if req.Name == "" || req.Team == "" {
		return nil, fmt.Errorf("backend %s: agent and team names required", claudeCodeName)
	}
	model, err := b.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}

	argv := []string{b.binary,
		"--agent-id", req.AgentID,
		"--agent-name", req.Name,
		"--team-name", req.Team,
	}
	if req.Color != "" {
		argv = append(argv, "--agent-color", req.Color)
	}
	if req.LeadSessionID != "" {
		argv = append(argv, "--parent-session-id", req.LeadSessionID)
	}
	if req.AgentType != "" {
		argv = append(argv, "--agent-type", req.AgentType)
	}
	argv = append(argv, "--model", model)
	if req.PlanModeRequired {
		argv = append(argv, "--plan-mode-required")
	}
	return argv, nil
}

func (b *ClaudeCode) BuildEnv(req SpawnRequest) []string {
	return []string{
		"CLAUDECODE=1",
		"CLAUDE_CODE_EXPERIMENTAL_AGENT_TEAMS=1",
	}
}

func (b *ClaudeCode) Spawn(ctx context.Context, req SpawnRequest) (string, error) {
	argv, err := b.BuildCommand(req)
	if err != nil {
		return "", err
	}
	return spawnPane(ctx, req, argv, b.BuildEnv(req))
}

func (b *ClaudeCode) HealthCheck(ctx context.Context, handle string) (Health, error) {
	return paneHealth(handle), nil
}

func (b *ClaudeCode) Kill(ctx context.Context, handle string) error {
	return killPane(handle)
}

func (b *ClaudeCode) GracefulShutdown(ctx context.Context, handle string, timeout time.Duration) error {
	return gracefulPane(handle, timeout)
}
