package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CustomFileName is the declaration file read from the crew root.
const CustomFileName = "backends.yaml"

// CustomSpec declares a user-defined backend:
//
//	backends:
//	  - name: aider
//	    binary: aider
//	    models:
//	      fast: gpt-4.1-mini
//	      balanced: gpt-4.1
//	      powerful: o3
//	    default_model: gpt-4.1
//	    args: ["--model", "{{model}}", "--message", "{{prompt}}"]
//	    env:
//	      AIDER_AUTO_COMMITS: "0"
//
// Args may reference {{agent_id}}, {{name}}, {{team}}, {{model}},
// {{prompt}}, {{color}}, {{agent_type}}, and {{session_id}}.
type CustomSpec struct {
	Name         string            `yaml:"name"`
	Binary       string            `yaml:"binary"`
	Models       map[string]string `yaml:"models"`
	DefaultModel string            `yaml:"default_model"`
	Args         []string          `yaml:"args"`
	Env          map[string]string `yaml:"env"`
}

type customFile struct {
	Backends []CustomSpec `yaml:"backends"`
}

// Custom is a backend declared in backends.yaml rather than compiled
// in. It runs in crew tmux panes like the builtins.
type Custom struct {
	name         string
	binary       string
	models       map[string]string
	defaultModel string
	args         []string
	env          []string
}

// NewCustom validates a declaration and builds the backend.
func NewCustom(spec CustomSpec) (*Custom, error) {
	if spec.Name == "" {
		return nil, errors.New("backend declaration missing name")
	}
	if spec.Binary == "" {
		return nil, fmt.Errorf("backend %s: declaration missing binary", spec.Name)
	}

	env := make([]string, 0, len(spec.Env))
	for key, value := range spec.Env {
		if !envKeyRe.MatchString(key) {
			return nil, fmt.Errorf("backend %s: invalid environment key %q", spec.Name, key)
		}
		env = append(env, key+"="+value)
	}
	sort.Strings(env)

	models := make(map[string]string, len(spec.Models))
	for name, model := range spec.Models {
		models[name] = model
	}
	defaultModel := spec.DefaultModel
	if defaultModel == "" {
		defaultModel = models[TierBalanced]
	}

	return &Custom{
		name:         spec.Name,
		binary:       spec.Binary,
		models:       models,
		defaultModel: defaultModel,
		args:         append([]string(nil), spec.Args...),
		env:          env,
	}, nil
}

// LoadCustomFile reads every backend declared in a backends.yaml. A
// missing file is not an error.
func LoadCustomFile(path string) ([]*Custom, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backend: read %s: %w", path, err)
	}

	var file customFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("backend: parse %s: %w", path, err)
	}

	backends := make([]*Custom, 0, len(file.Backends))
	for _, spec := range file.Backends {
		b, err := NewCustom(spec)
		if err != nil {
			return nil, fmt.Errorf("backend: %s: %w", path, err)
		}
		backends = append(backends, b)
	}
	return backends, nil
}

func (b *Custom) Name() string { return b.name }

func (b *Custom) Binary() string { return b.binary }

func (b *Custom) Available() bool { return binaryOnPath(b.binary) }

func (b *Custom) DiscoverBinary() (string, error) { return lookPath(b.name, b.binary) }

// SupportedModels lists the distinct model names the declaration maps
// to, sorted.
func (b *Custom) SupportedModels() []string {
	seen := make(map[string]bool, len(b.models))
	models := make([]string, 0, len(b.models))
	for _, model := range b.models {
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

func (b *Custom) DefaultModel() string { return b.defaultModel }

// ResolveModel maps declared tiers and aliases; anything else passes
// through, since crew cannot know a custom tool's full model set.
func (b *Custom) ResolveModel(name string) (string, error) {
	if name == "" {
		return b.defaultModel, nil
	}
	if model, ok := b.models[name]; ok {
		return model, nil
	}
	return name, nil
}

func (b *Custom) BuildCommand(req SpawnRequest) ([]string, error) {
	model, err := b.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}

	expand := strings.NewReplacer(
		"{{agent_id}}", req.AgentID,
		"{{name}}", req.Name,
		"{{team}}", req.Team,
		"{{model}}", model,
		"{{prompt}}", req.Prompt,
		"{{color}}", req.Color,
		"{{agent_type}}", req.AgentType,
		"{{session_id}}", req.LeadSessionID,
	)
	argv := make([]string, 0, len(b.args)+1)
	argv = append(argv, b.binary)
	for _, arg := range b.args {
		argv = append(argv, expand.Replace(arg))
	}
	return argv, nil
}

func (b *Custom) BuildEnv(req SpawnRequest) []string {
	return append([]string(nil), b.env...)
}

func (b *Custom) Spawn(ctx context.Context, req SpawnRequest) (string, error) {
	argv, err := b.BuildCommand(req)
	if err != nil {
		return "", err
	}
	return spawnPane(ctx, req, argv, b.BuildEnv(req))
}

func (b *Custom) HealthCheck(ctx context.Context, handle string) (Health, error) {
	return paneHealth(handle), nil
}

func (b *Custom) Kill(ctx context.Context, handle string) error {
	return killPane(handle)
}

func (b *Custom) GracefulShutdown(ctx context.Context, handle string, timeout time.Duration) error {
	return gracefulPane(handle, timeout)
}
