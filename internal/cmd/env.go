package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/crewhq/crew/internal/backend"
	"github.com/crewhq/crew/internal/config"
	"github.com/crewhq/crew/internal/logging"
	"github.com/crewhq/crew/internal/roster"
	"github.com/spf13/cobra"
)

// env is the shared runtime every command builds before doing work: the
// validated configuration, the resolved coordination root, the logger,
// and a roster engine wired to the backend registry. Commands own the
// env for the duration of one invocation and must Close it.
type env struct {
	cfg    *config.Config
	root   string
	logger *logging.Logger
	crew   *roster.Engine
}

// newEnv loads configuration, resolves the coordination root, and
// constructs the engines. Validation errors surface here so every
// command reports them the same way.
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	root := cfg.Store.ResolveRoot()

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		l, err := logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(root), cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   cfg.Logging.Compress,
		})
		if err != nil {
			// A broken log destination should not take the CLI down
			fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		} else {
			logger = l
		}
	}

	registry := backend.NewRegistry(backend.WithLogger(logger))
	registry.LoadBuiltins()
	if err := registry.LoadCustom(cfg.Backend.ResolveCustomFile(root)); err != nil {
		_ = logger.Close()
		return nil, err
	}

	crew, err := roster.NewEngine(root, registry,
		roster.WithLogger(logger),
		roster.WithLockTimeout(cfg.Store.LockTimeout()),
	)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	return &env{
		cfg:    cfg,
		root:   root,
		logger: logger,
		crew:   crew,
	}, nil
}

// Close releases the env's resources. Safe to call on a nil receiver.
func (e *env) Close() {
	if e == nil || e.logger == nil {
		return
	}
	_ = e.logger.Close()
}

// workingDir returns the process working directory, or "." when it
// cannot be determined.
func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// printJSON renders v as indented JSON for programmatic consumers.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
