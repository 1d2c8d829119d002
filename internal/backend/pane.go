package backend

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/crewhq/crew/internal/tmux"
)

// envKeyRe matches environment variable names allowed as shell prefix
// assignments. Anything else is dropped rather than interpolated.
var envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// plainWordRe matches strings that need no quoting on a shell command
// line.
var plainWordRe = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// shQuote wraps s in single quotes unless it is already shell-safe.
func shQuote(s string) string {
	if s == "" {
		return "''"
	}
	if plainWordRe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// shellLine renders an argv plus KEY=value pairs as one shell command.
// The env pairs become prefix assignments, so the agent sees them
// without the pane's shell exporting anything.
func shellLine(argv, env []string) string {
	parts := make([]string, 0, len(env)+len(argv))
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !envKeyRe.MatchString(key) {
			continue
		}
		parts = append(parts, key+"="+shQuote(value))
	}
	for _, arg := range argv {
		parts = append(parts, shQuote(arg))
	}
	return strings.Join(parts, " ")
}

// paneSession names the tmux session hosting one agent on the crew
// server.
func paneSession(req SpawnRequest) string {
	return fmt.Sprintf("crew-%s-%s", req.Team, req.Name)
}

// spawnPane starts the rendered command in a fresh session on the crew
// server and returns the pane id as the process handle.
func spawnPane(ctx context.Context, req SpawnRequest, argv, env []string) (string, error) {
	return tmux.SpawnPane(ctx, paneSession(req), req.Cwd, shellLine(argv, env))
}

// paneHealth probes the pane and the process running inside it.
func paneHealth(handle string) Health {
	if handle == "" {
		return Health{Detail: "no process handle recorded"}
	}
	if !tmux.PaneExists(handle) {
		return Health{Detail: "tmux pane gone"}
	}
	pid := tmux.PanePID(handle)
	if pid <= 0 || !tmux.IsProcessAlive(pid) {
		return Health{Detail: "pane process exited"}
	}
	return Health{Alive: true, Detail: fmt.Sprintf("pane %s pid %d", handle, pid)}
}

// killPane tears down the pane and every process it still hosts.
func killPane(handle string) error {
	if handle == "" {
		return nil
	}
	pids := tmux.CollectProcessTree(handle)
	err := tmux.KillPane(handle)
	tmux.EnsureProcessesKilled(pids)
	if err != nil && tmux.PaneExists(handle) {
		return fmt.Errorf("backend: kill pane %s: %w", handle, err)
	}
	return nil
}

// gracefulPane interrupts the pane process and escalates to kill after
// the timeout.
func gracefulPane(handle string, timeout time.Duration) error {
	if handle == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = tmux.DefaultGracefulStopTimeout
	}
	tmux.GracefulShutdown(handle, timeout)
	return nil
}

// lookPath resolves a backend binary, reporting the unresolved name in
// the error.
func lookPath(name, binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("backend %s: binary %q not found on PATH: %w", name, binary, err)
	}
	return path, nil
}

// binaryOnPath reports whether a binary resolves without keeping the
// resolved path.
func binaryOnPath(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
