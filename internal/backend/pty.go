package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/crewhq/crew/internal/tmux"
)

// ptyHandlePrefix marks handles issued by the pty runner.
const ptyHandlePrefix = "pty:"

// PTYRunner hosts another backend's agents on local pseudo-terminals
// instead of tmux panes, for machines without a tmux binary. Handles
// are "pty:<pid>" and keep working from later crew invocations; only
// the terminal drain belongs to the process that spawned the agent.
type PTYRunner struct {
	inner Backend

	mu      sync.Mutex
	masters map[int]*os.File
}

// NewPTYRunner wraps a backend's command construction with pty
// hosting. The runner registers as "<name>-pty".
func NewPTYRunner(inner Backend) *PTYRunner {
	return &PTYRunner{inner: inner, masters: make(map[int]*os.File)}
}

func (r *PTYRunner) Name() string { return r.inner.Name() + "-pty" }

func (r *PTYRunner) Binary() string { return r.inner.Binary() }

func (r *PTYRunner) Available() bool { return r.inner.Available() }

func (r *PTYRunner) DiscoverBinary() (string, error) { return r.inner.DiscoverBinary() }

func (r *PTYRunner) SupportedModels() []string { return r.inner.SupportedModels() }

func (r *PTYRunner) DefaultModel() string { return r.inner.DefaultModel() }

func (r *PTYRunner) ResolveModel(name string) (string, error) { return r.inner.ResolveModel(name) }

func (r *PTYRunner) BuildCommand(req SpawnRequest) ([]string, error) {
	return r.inner.BuildCommand(req)
}

func (r *PTYRunner) BuildEnv(req SpawnRequest) []string { return r.inner.BuildEnv(req) }

func (r *PTYRunner) Spawn(ctx context.Context, req SpawnRequest) (string, error) {
	argv, err := r.BuildCommand(req)
	if err != nil {
		return "", err
	}

	// The agent must outlive the spawning process, so no CommandContext.
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = req.Cwd
	cmd.Env = append(os.Environ(), r.BuildEnv(req)...)

	master, err := pty.Start(cmd)
	if err != nil {
		return "", fmt.Errorf("backend %s: start on pty: %w", r.Name(), err)
	}

	pid := cmd.Process.Pid
	r.mu.Lock()
	r.masters[pid] = master
	r.mu.Unlock()
	go r.drain(pid, master, cmd)

	return fmt.Sprintf("%s%d", ptyHandlePrefix, pid), nil
}

// drain keeps the terminal readable so the agent never blocks on a
// full output buffer, then reaps the child when it exits.
func (r *PTYRunner) drain(pid int, master *os.File, cmd *exec.Cmd) {
	_, _ = io.Copy(io.Discard, master)
	_ = cmd.Wait()
	r.closeMaster(pid)
}

func (r *PTYRunner) HealthCheck(ctx context.Context, handle string) (Health, error) {
	pid, err := parsePTYHandle(handle)
	if err != nil {
		return Health{}, err
	}
	if !tmux.IsProcessAlive(pid) {
		return Health{Detail: "pty process exited"}, nil
	}
	return Health{Alive: true, Detail: fmt.Sprintf("pty pid %d", pid)}, nil
}

func (r *PTYRunner) Kill(ctx context.Context, handle string) error {
	pid, err := parsePTYHandle(handle)
	if err != nil {
		return err
	}
	tmux.KillProcessTree(pid)
	r.closeMaster(pid)
	return nil
}

func (r *PTYRunner) GracefulShutdown(ctx context.Context, handle string, timeout time.Duration) error {
	pid, err := parsePTYHandle(handle)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = tmux.DefaultGracefulStopTimeout
	}
	if tmux.IsProcessAlive(pid) {
		_ = syscall.Kill(pid, syscall.SIGINT)
		if !tmux.WaitForProcessExit(pid, timeout) {
			tmux.KillProcessTree(pid)
		}
	}
	r.closeMaster(pid)
	return nil
}

func (r *PTYRunner) closeMaster(pid int) {
	r.mu.Lock()
	master := r.masters[pid]
	delete(r.masters, pid)
	r.mu.Unlock()
	if master != nil {
		_ = master.Close()
	}
}

func parsePTYHandle(handle string) (int, error) {
	rest, ok := strings.CutPrefix(handle, ptyHandlePrefix)
	if !ok {
		return 0, fmt.Errorf("backend: %q is not a pty handle", handle)
	}
	pid, err := strconv.Atoi(rest)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("backend: malformed pty handle %q", handle)
	}
	return pid, nil
}
