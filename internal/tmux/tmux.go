// Package tmux runs agent processes in panes on an isolated tmux server.
//
// Crew keeps every agent it spawns on a dedicated socket named "crew"
// (tmux -L crew), so agent sessions never mix with the user's own tmux
// server and a stray kill-server cannot take out unrelated work. One
// server hosts every agent; each agent gets its own detached session and
// is addressed by its pane id, which doubles as the process handle the
// rest of the system stores.
package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SocketName is the tmux socket every crew agent session lives on.
const SocketName = "crew"

// Command creates an exec.Cmd for tmux on the crew socket.
func Command(args ...string) *exec.Cmd {
	return exec.Command("tmux", append(BaseArgs(), args...)...)
}

// CommandContext creates a context-aware exec.Cmd for tmux on the crew
// socket.
func CommandContext(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "tmux", append(BaseArgs(), args...)...)
}

// BaseArgs returns the socket arguments [-L, crew]. Use this when a
// command line is assembled elsewhere, e.g. for display.
func BaseArgs() []string {
	return []string{"-L", SocketName}
}

// SpawnPane starts command in a new detached session and returns the
// pane id (e.g. "%3"). The pane id is the stable handle for every later
// operation; session names are only for humans attaching to watch.
// When dir is non-empty the pane starts there.
func SpawnPane(ctx context.Context, session, dir, command string) (string, error) {
	args := []string{"new-session", "-d", "-s", session, "-P", "-F", "#{pane_id}"}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	args = append(args, command)

	out, err := CommandContext(ctx, args...).Output()
	if err != nil {
		return "", fmt.Errorf("tmux: create session %q: %w", session, err)
	}
	paneID := strings.TrimSpace(string(out))
	if paneID == "" {
		return "", fmt.Errorf("tmux: create session %q: no pane id reported", session)
	}
	return paneID, nil
}

// PaneExists reports whether the target pane is still present on the
// crew server.
func PaneExists(target string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := CommandContext(ctx, "display-message", "-t", target, "-p", "#{pane_id}").Output()
	return err == nil && strings.TrimSpace(string(out)) != ""
}

// KillPane destroys the target pane. The session goes with it when the
// pane was its last one.
func KillPane(target string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return CommandContext(ctx, "kill-pane", "-t", target).Run()
}

// KillServer tears down the whole crew tmux server and every agent pane
// on it. This is a last-resort cleanup, not part of ordinary shutdown.
func KillServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return CommandContext(ctx, "kill-server").Run()
}
