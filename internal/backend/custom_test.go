package backend

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func testCustomSpec() CustomSpec {
	return CustomSpec{
		Name:   "aider",
		Binary: "aider",
		Models: map[string]string{
			TierFast:     "gpt-4.1-mini",
			TierBalanced: "gpt-4.1",
			TierPowerful: "o3",
			"mini":       "gpt-4.1-mini",
		},
		Args: []string{"--model", "{{model}}", "--message", "{{prompt}}"},
		Env:  map[string]string{"AIDER_AUTO_COMMITS": "0"},
	}
}

func TestNewCustom_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CustomSpec)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(s *CustomSpec) { s.Name = "" },
			wantErr: "missing name",
		},
		{
			name:    "missing binary",
			mutate:  func(s *CustomSpec) { s.Binary = "" },
			wantErr: "missing binary",
		},
		{
			name:    "bad env key",
			mutate:  func(s *CustomSpec) { s.Env = map[string]string{"BAD KEY": "1"} },
			wantErr: "invalid environment key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testCustomSpec()
			tt.mutate(&spec)
			_, err := NewCustom(spec)
			if err == nil {
				t.Fatal("NewCustom should return error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestCustom_ResolveModel(t *testing.T) {
	b, err := NewCustom(testCustomSpec())
	if err != nil {
		t.Fatalf("NewCustom returned error: %v", err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty falls back to balanced", in: "", want: "gpt-4.1"},
		{name: "tier", in: TierPowerful, want: "o3"},
		{name: "alias", in: "mini", want: "gpt-4.1-mini"},
		{name: "unknown passes through", in: "gpt-6", want: "gpt-6"},
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

func TestCustom_ExplicitDefaultModel(t *testing.T) {
	spec := testCustomSpec()
	spec.DefaultModel = "o3"
	b, err := NewCustom(spec)
	if err != nil {
		t.Fatalf("NewCustom returned error: %v", err)
	}
	if got := b.DefaultModel(); got != "o3" {
		t.Errorf("DefaultModel() = %q, want %q", got, "o3")
	}
}

func TestCustom_SupportedModels(t *testing.T) {
	b, err := NewCustom(testCustomSpec())
	if err != nil {
		t.Fatalf("NewCustom returned error: %v", err)
	}
	want := []string{"gpt-4.1", "gpt-4.1-mini", "o3"}
	if got := b.SupportedModels(); !slices.Equal(got, want) {
		t.Errorf("SupportedModels() = %v, want %v", got, want)
	}
}

func TestCustom_BuildCommand(t *testing.T) {
	b, err := NewCustom(testCustomSpec())
	if err != nil {
		t.Fatalf("NewCustom returned error: %v", err)
	}

	req := fullSpawnRequest()
	req.Model = TierFast
	argv, err := b.BuildCommand(req)
	if err != nil {
		t.Fatalf("BuildCommand returned error: %v", err)
	}
	want := []string{"aider", "--model", "gpt-4.1-mini", "--message", "Summarize the open questions"}
	if !slices.Equal(argv, want) {
		t.Errorf("BuildCommand = %v, want %v", argv, want)
	}
}

func TestCustom_BuildEnv(t *testing.T) {
	b, err := NewCustom(testCustomSpec())
	if err != nil {
		t.Fatalf("NewCustom returned error: %v", err)
	}
	env := b.BuildEnv(fullSpawnRequest())
	if !slices.Contains(env, "AIDER_AUTO_COMMITS=0") {
		t.Errorf("env missing declared variable: %v", env)
	}
}

func TestLoadCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), CustomFileName)
	yaml := `backends:
  - name: aider
    binary: aider
    models:
      balanced: gpt-4.1
    args: ["--message", "{{prompt}}"]
  - name: goose
    binary: goose
    default_model: claude-sonnet
    args: ["run", "--text", "{{prompt}}"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	backends, err := LoadCustomFile(path)
	if err != nil {
		t.Fatalf("LoadCustomFile returned error: %v", err)
	}
	if len(backends) != 2 {
		t.Fatalf("loaded %d backends, want 2", len(backends))
	}
	if backends[0].Name() != "aider" || backends[1].Name() != "goose" {
		t.Errorf("unexpected names: %q, %q", backends[0].Name(), backends[1].Name())
	}
	if got := backends[1].DefaultModel(); got != "claude-sonnet" {
		t.Errorf("goose DefaultModel() = %q, want %q", got, "claude-sonnet")
	}
}

func TestLoadCustomFile_Missing(t *testing.T) {
	backends, err := LoadCustomFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error, got: %v", err)
	}
	if backends != nil {
		t.Errorf("missing file should load nothing, got: %v", backends)
	}
}

func TestLoadCustomFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), CustomFileName)
	if err := os.WriteFile(path, []byte("backends: {not a list"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCustomFile(path)
	if err == nil {
		t.Fatal("malformed yaml should return error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file, got: %v", err)
	}
}

func TestLoadCustomFile_BadDeclaration(t *testing.T) {
	path := filepath.Join(t.TempDir(), CustomFileName)
	if err := os.WriteFile(path, []byte("backends:\n  - binary: aider\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCustomFile(path); err == nil {
		t.Fatal("declaration without a name should return error")
	}
}
