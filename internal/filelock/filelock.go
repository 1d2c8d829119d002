package filelock

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/crewhq/crew/internal/errors"
)

// DefaultTimeout bounds lock acquisition for ordinary document operations.
// Writers hold locks only for the duration of a read-modify-write cycle, so
// waiting longer than this almost always means a crashed or wedged holder.
const DefaultTimeout = 10 * time.Second

// retryInterval is the pause between non-blocking acquisition attempts.
const retryInterval = 10 * time.Millisecond

// Handle represents a held advisory lock. It is returned by a successful
// [Acquire] and must be released by the same goroutine chain that acquired
// it, typically via defer.
type Handle struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// Path returns the lock file path this handle guards.
func (h *Handle) Path() string {
	return h.path
}

// Release drops the lock and closes the underlying descriptor.
// It is idempotent: releasing an already-released handle is a no-op.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil
	}

	if err := syscall.Flock(int(h.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = h.file.Close()
		h.file = nil
		return errors.NewIOError("funlock", h.path, err)
	}

	err := h.file.Close()
	h.file = nil
	if err != nil {
		return errors.NewIOError("close", h.path, err)
	}
	return nil
}

// Acquire takes an exclusive advisory lock on path, creating the lock file
// if it does not exist. It retries a non-blocking flock every few
// milliseconds until it succeeds, the timeout elapses, or ctx is canceled.
//
// A timeout yields a *errors.LockTimeoutError (matching
// errors.ErrLockTimeout); cancellation yields ctx.Err(). Both leave no side
// effects. If timeout is zero or negative, [DefaultTimeout] applies.
//
// The parent directory must already exist: lock files appear on demand but
// directories are scaffolded by the operations that own them, so a missing
// directory surfaces as an IO error instead of silently materializing
// store structure.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Handle, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &Handle{path: path, file: f}, nil
		}
		if err != syscall.EWOULDBLOCK {
			_ = f.Close()
			return nil, errors.NewIOError("flock", path, err)
		}

		if !time.Now().Before(deadline) {
			_ = f.Close()
			return nil, errors.NewLockTimeoutError(path, timeout)
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// TryAcquire attempts a single non-blocking acquisition. It returns the
// handle and true on success, or nil and false if the lock is held
// elsewhere. Errors are reserved for I/O failures.
func TryAcquire(path string) (*Handle, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, false, errors.NewIOError("open", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, errors.NewIOError("flock", path, err)
	}

	return &Handle{path: path, file: f}, true, nil
}
