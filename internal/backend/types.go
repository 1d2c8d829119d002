package backend

import (
	"context"
	"time"
)

// Model tiers every backend resolves to a concrete model name.
const (
	TierFast     = "fast"
	TierBalanced = "balanced"
	TierPowerful = "powerful"
)

// Tiers returns the tier names in ascending capability order.
func Tiers() []string {
	return []string{TierFast, TierBalanced, TierPowerful}
}

// SpawnRequest carries everything a backend needs to start one agent.
type SpawnRequest struct {
	// AgentID is the stable identity handed to the agent process.
	AgentID string

	// Name and Team place the agent on its team.
	Name string
	Team string

	// Prompt is the initial instruction. Backends that take no prompt
	// on the command line leave delivery to the caller's inbox seed.
	Prompt string

	// Model is a tier name, a backend model name, or empty for the
	// backend default.
	Model string

	// AgentType distinguishes lead and teammate processes.
	AgentType string

	// Color is the display color assigned to the agent.
	Color string

	// Cwd is the working directory the agent starts in.
	Cwd string

	// LeadSessionID links the teammate back to the session that
	// spawned it.
	LeadSessionID string

	// PlanModeRequired makes the agent submit a plan for approval
	// before touching files.
	PlanModeRequired bool

	// Extra holds backend-specific settings declared at spawn time.
	Extra map[string]string
}

// Health is the result of probing a spawned agent.
type Health struct {
	Alive  bool
	Detail string
}

// Backend spawns and manages agent processes for one CLI tool.
//
// Handles returned by Spawn are opaque strings the caller persists and
// feeds back into HealthCheck, Kill, and GracefulShutdown; their shape
// is backend-specific.
type Backend interface {
	// Name identifies the backend in the registry and in team docs.
	Name() string

	// Binary is the executable the backend drives.
	Binary() string

	// Available reports whether the binary is on PATH.
	Available() bool

	// DiscoverBinary resolves the binary to an absolute path.
	DiscoverBinary() (string, error)

	// SupportedModels lists the model names ResolveModel accepts
	// beyond the tiers. An open model space returns its known names.
	SupportedModels() []string

	// DefaultModel is the model used when a request names none.
	DefaultModel() string

	// ResolveModel maps a tier or model name to the concrete model.
	ResolveModel(name string) (string, error)

	// BuildCommand renders the argv that starts the agent.
	BuildCommand(req SpawnRequest) ([]string, error)

	// BuildEnv renders the extra environment in KEY=value form.
	BuildEnv(req SpawnRequest) []string

	// Spawn starts the agent and returns its process handle.
	Spawn(ctx context.Context, req SpawnRequest) (handle string, err error)

	// HealthCheck probes the process behind a handle. A dead process
	// is not an error; the result says so.
	HealthCheck(ctx context.Context, handle string) (Health, error)

	// Kill terminates the process behind a handle immediately.
	Kill(ctx context.Context, handle string) error

	// GracefulShutdown interrupts the process and escalates to kill
	// after the timeout.
	GracefulShutdown(ctx context.Context, handle string, timeout time.Duration) error
}
