package backend

import (
	"slices"
	"strings"
	"testing"
)

// flagValue returns the argv entry following flag, or "" when the flag
// is absent.
func flagValue(argv []string, flag string) string {
	for i, arg := range argv {
		if arg == flag && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return ""
}

func fullSpawnRequest() SpawnRequest {
	return SpawnRequest{
		AgentID:       "researcher@demo",
		Name:          "researcher",
		Team:          "demo",
		Prompt:        "Summarize the open questions",
		Model:         TierBalanced,
		AgentType:     "teammate",
		Color:         "blue",
		Cwd:           "/tmp/work",
		LeadSessionID: "lead-session-1",
	}
}

func TestClaudeCode_Identity(t *testing.T) {
	b := NewClaudeCode()
	if got := b.Name(); got != "claude-code" {
		t.Errorf("Name() = %q, want %q", got, "claude-code")
	}
	if got := b.Binary(); got != "claude" {
		t.Errorf("Binary() = %q, want %q", got, "claude")
	}
	if got := b.DefaultModel(); got != "sonnet" {
		t.Errorf("DefaultModel() = %q, want %q", got, "sonnet")
	}
	want := []string{"haiku", "sonnet", "opus"}
	if got := b.SupportedModels(); !slices.Equal(got, want) {
		t.Errorf("SupportedModels() = %v, want %v", got, want)
	}
}

func TestClaudeCode_ResolveModel(t *testing.T) {
	b := NewClaudeCode()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "empty uses default", in: "", want: "sonnet"},
		{name: "fast tier", in: TierFast, want: "haiku"},
		{name: "balanced tier", in: TierBalanced, want: "sonnet"},
		{name: "powerful tier", in: TierPowerful, want: "opus"},
		{name: "bare model name", in: "opus", want: "opus"},
		{name: "unknown model", in: "gpt-5.3-codex", wantErr: true},
		{name: "unknown tier", in: "turbo", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.ResolveModel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveModel(%q) succeeded, want error", tt.in)
				}
				if !strings.Contains(err.Error(), "haiku, sonnet, opus") {
					t.Errorf("error should name the supported set, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveModel(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveModel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClaudeCode_BuildCommand(t *testing.T) {
	b := NewClaudeCode()
	req := fullSpawnRequest()
	req.PlanModeRequired = true

	argv, err := b.BuildCommand(req)
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	if argv[0] != "claude" {
		t.Errorf("argv[0] = %q, want %q", argv[0], "claude")
	}

	wantFlags := map[string]string{
		"--agent-id":          "researcher@demo",
		"--agent-name":        "researcher",
		"--team-name":         "demo",
		"--agent-color":       "blue",
		"--parent-session-id": "lead-session-1",
		"--agent-type":        "teammate",
		"--model":             "sonnet",
	}
	for flag, want := range wantFlags {
		if got := flagValue(argv, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
	if !slices.Contains(argv, "--plan-mode-required") {
		t.Errorf("argv missing --plan-mode-required: %v", argv)
	}
	if slices.Contains(argv, req.Prompt) {
		t.Errorf("prompt should not appear on the command line: %v", argv)
	}
}

func TestClaudeCode_BuildCommand_OmitsEmptyFlags(t *testing.T) {
	b := NewClaudeCode()
	argv, err := b.BuildCommand(SpawnRequest{
		AgentID: "lead@demo",
		Name:    "lead",
		Team:    "demo",
	})
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	for _, flag := range []string{"--agent-color", "--parent-session-id", "--agent-type", "--plan-mode-required"} {
		if slices.Contains(argv, flag) {
			t.Errorf("argv should omit %s when unset: %v", flag, argv)
		}
	}
	if got := flagValue(argv, "--model"); got != "sonnet" {
		t.Errorf("--model = %q, want default %q", got, "sonnet")
	}
}

func TestClaudeCode_BuildCommand_Validation(t *testing.T) {
	b := NewClaudeCode()

	t.Run("missing agent id", func(t *testing.T) {
		_, err := b.BuildCommand(SpawnRequest{Name: "researcher", Team: "demo"})
		if err == nil || !strings.Contains(err.Error(), "agent id required") {
			t.Errorf("want agent id error, got: %v", err)
		}
	})

	t.Run("missing names", func(t *testing.T) {
		_, err := b.BuildCommand(SpawnRequest{AgentID: "researcher@demo"})
		if err == nil || !strings.Contains(err.Error(), "names required") {
			t.Errorf("want names error, got: %v", err)
		}
	})

	t.Run("bad model", func(t *testing.T) {
		req := fullSpawnRequest()
		req.Model = "mystery"
		if _, err := b.BuildCommand(req); err == nil {
			t.Error("BuildCommand with unknown model should return error")
		}
	})
}

func TestClaudeCode_BuildEnv(t *testing.T) {
	env := NewClaudeCode().BuildEnv(fullSpawnRequest())
	for _, want := range []string{"CLAUDECODE=1", "CLAUDE_CODE_EXPERIMENTAL_AGENT_TEAMS=1"} {
		if !slices.Contains(env, want) {
			t.Errorf("env missing %q: %v", want, env)
		}
	}
}
