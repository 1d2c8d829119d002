package backend

import (
	"context"
	"fmt"
	"time"
)

const codexName = "codex"

// codexModels maps tiers onto Codex model names. The Codex CLI accepts
// an open model set, so unrecognized names pass through untouched.
var codexModels = map[string]string{
	TierFast:     "gpt-5.1-codex-mini",
	TierBalanced: "gpt-5.3-codex",
	TierPowerful: "gpt-5.1-codex-max",
}

// Codex runs agents with the Codex CLI in crew tmux panes. Codex takes
// the initial prompt on the command line, so spawn requests for it
// must carry one.
type Codex struct {
	binary string
}

// NewCodex creates the codex backend.
func NewCodex() *Codex {
	return &Codex{binary: "codex"}
}

func (b *Codex) Name() string { return codexName }

func (b *Codex) Binary() string { return b.binary }

func (b *Codex) Available() bool { return binaryOnPath(b.binary) }

func (b *Codex) DiscoverBinary() (string, error) { return lookPath(codexName, b.binary) }

func (b *Codex) SupportedModels() []string {
	return []string{"gpt-5.1-codex-mini", "gpt-5.3-codex", "gpt-5.1-codex-max"}
}

func (b *Codex) DefaultModel() string { return "gpt-5.3-codex" }

func (b *Codex) ResolveModel(name string) (string, error) {
	if name == "" {
		return b.DefaultModel(), nil
	}
	if model, ok := codexModels[name]; ok {
		return model, nil
	}
	return name, nil
}

func (b *Codex) BuildCommand(req SpawnRequest) ([]string, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("backend %s: prompt required", codexName)
	}
	model, err := b.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}

	argv := []string{b.binary, "exec", "--model", model, "--full-auto"}
	if req.Cwd != "" {
		argv = append(argv, "-C", req.Cwd)
	}
	if path := req.Extra["output_last_message"]; path != "" {
		argv = append(argv, "--output-last-message", path)
	}
	argv = append(argv, req.Prompt)
	return argv, nil
}

func (b *Codex) BuildEnv(req SpawnRequest) []string { return nil }

func (b *Codex) Spawn(ctx context.Context, req SpawnRequest) (string, error) {
	argv, err := b.BuildCommand(req)
	if err != nil {
		return "", err
	}
	return spawnPane(ctx, req, argv, b.BuildEnv(req))
}

func (b *Codex) HealthCheck(ctx context.Context, handle string) (Health, error) {
	return paneHealth(handle), nil
}

func (b *Codex) Kill(ctx context.Context, handle string) error {
	return killPane(handle)
}

func (b *Codex) GracefulShutdown(ctx context.Context, handle string, timeout time.Duration) error {
	return gracefulPane(handle, timeout)
}
