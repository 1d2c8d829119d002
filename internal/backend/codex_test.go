package backend

import (
	"slices"
	"strings"
	"testing"
)

func TestCodex_ResolveModel(t *testing.T) {
	b := NewCodex()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty uses default", in: "", want: "gpt-5.3-codex"},
		{name: "fast tier", in: TierFast, want: "gpt-5.1-codex-mini"},
		{name: "balanced tier", in: TierBalanced, want: "gpt-5.3-codex"},
		{name: "powerful tier", in: TierPowerful, want: "gpt-5.1-codex-max"},
		{name: "unknown passes through", in: "o4-preview", want: "o4-preview"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.ResolveModel(tt.in)
			if err != nil {
				t.Fatalf("ResolveModel(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ResolveModel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCodex_BuildCommand(t *testing.T) {
	b := NewCodex()
	req := fullSpawnRequest()

	argv, err := b.BuildCommand(req)
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	if argv[0] != "codex" || argv[1] != "exec" {
		t.Errorf("command should start with codex exec, got: %v", argv[:2])
	}
	if got := flagValue(argv, "--model"); got != "gpt-5.3-codex" {
		t.Errorf("--model = %q, want %q", got, "gpt-5.3-codex")
	}
	if !slices.Contains(argv, "--full-auto") {
		t.Errorf("argv missing --full-auto: %v", argv)
	}
	if got := flagValue(argv, "-C"); got != "/tmp/work" {
		t.Errorf("-C = %q, want %q", got, "/tmp/work")
	}
	if argv[len(argv)-1] != req.Prompt {
		t.Errorf("prompt should be the last argument, got: %q", argv[len(argv)-1])
	}
}

func TestCodex_BuildCommand_OutputLastMessage(t *testing.T) {
	b := NewCodex()
	req := fullSpawnRequest()
	req.Extra = map[string]string{"output_last_message": "/tmp/last.txt"}

	argv, err := b.BuildCommand(req)
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	if got := flagValue(argv, "--output-last-message"); got != "/tmp/last.txt" {
		t.Errorf("--output-last-message = %q, want %q", got, "/tmp/last.txt")
	}
	if argv[len(argv)-1] != req.Prompt {
		t.Errorf("prompt should stay the last argument, got: %q", argv[len(argv)-1])
	}
}

func TestCodex_BuildCommand_RequiresPrompt(t *testing.T) {
	req := fullSpawnRequest()
	req.Prompt = ""
	_, err := NewCodex().BuildCommand(req)
	if err == nil || !strings.Contains(err.Error(), "prompt required") {
		t.Errorf("want prompt error, got: %v", err)
	}
}

func TestCodex_BuildEnv_Empty(t *testing.T) {
	if env := NewCodex().BuildEnv(fullSpawnRequest()); len(env) != 0 {
		t.Errorf("codex should add no environment, got: %v", env)
	}
}
