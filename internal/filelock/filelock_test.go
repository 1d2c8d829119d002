package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/crewhq/crew/internal/errors"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	h, err := Acquire(context.Background(), lockPath, time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Lock file should exist
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("lock file should exist: %v", err)
	}

	if h.Path() != lockPath {
		t.Errorf("Path() = %q, want %q", h.Path(), lockPath)
	}

	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	// Lock file persists after release
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("lock file should persist after release: %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	h, err := Acquire(context.Background(), lockPath, time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := h.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
}

func TestAcquireMissingDir(t *testing.T) {
	_, err := Acquire(context.Background(), "/nonexistent/dir/.lock", time.Second)
	if err == nil {
		t.Fatal("Acquire() should fail for nonexistent directory")
	}

	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Acquire() error = %v, want *errors.IOError", err)
	}
}

func TestAcquireContention(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	holder, err := Acquire(context.Background(), lockPath, time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer holder.Release()

	// A second acquisition on a separate descriptor must time out.
	start := time.Now()
	_, err = Acquire(context.Background(), lockPath, 100*time.Millisecond)
	if err == nil {
		t.Fatal("second Acquire() should time out while lock is held")
	}
	if !errors.Is(err, errors.ErrLockTimeout) {
		t.Errorf("second Acquire() error = %v, want ErrLockTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("timed out after %v, want at least the 100ms timeout", elapsed)
	}

	var lockErr *errors.LockTimeoutError
	if !errors.As(err, &lockErr) {
		t.Fatalf("error = %v, want *errors.LockTimeoutError", err)
	}
	if lockErr.Path != lockPath {
		t.Errorf("Path = %q, want %q", lockErr.Path, lockPath)
	}
	if !errors.IsRetryable(err) {
		t.Error("lock timeout should be retryable")
	}
}

func TestAcquireAfterRelease(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	h1, err := Acquire(context.Background(), lockPath, time.Second)
	if err != nil {
		t.Fatalf("Acquire() 1 error = %v", err)
	}
	if err := h1.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	// Once released, the lock is immediately available again.
	h2, err := Acquire(context.Background(), lockPath, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire() 2 error = %v", err)
	}
	if err := h2.Release(); err != nil {
		t.Fatalf("Release() 2 error = %v", err)
	}
}

func TestAcquireContextCanceled(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	holder, err := Acquire(context.Background(), lockPath, time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer holder.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = Acquire(ctx, lockPath, 10*time.Second)
	if err == nil {
		t.Fatal("Acquire() should fail when context is canceled")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
	// Cancellation should win long before the 10s timeout.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, expected prompt return", elapsed)
	}
}

func TestAcquireZeroTimeoutUsesDefault(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	h, err := Acquire(context.Background(), lockPath, 0)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestTryAcquire(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	h, ok, err := TryAcquire(lockPath)
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if !ok {
		t.Fatal("TryAcquire() should succeed when lock is available")
	}

	// While held, a second try reports contention without error.
	_, ok2, err := TryAcquire(lockPath)
	if err != nil {
		t.Fatalf("second TryAcquire() error = %v", err)
	}
	if ok2 {
		t.Error("second TryAcquire() should report the lock as held")
	}

	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	h3, ok3, err := TryAcquire(lockPath)
	if err != nil {
		t.Fatalf("third TryAcquire() error = %v", err)
	}
	if !ok3 {
		t.Fatal("TryAcquire() should succeed after release")
	}
	_ = h3.Release()
}

// TestMutualExclusion drives many goroutines through a read-increment-write
// cycle on a shared counter file. Every increment must survive; lost
// updates mean the lock failed to serialize the critical sections.
func TestMutualExclusion(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")
	counterPath := filepath.Join(dir, "counter")

	if err := os.WriteFile(counterPath, []byte("0"), 0644); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	const goroutines = 8
	const increments = 25

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range increments {
				h, err := Acquire(context.Background(), lockPath, 10*time.Second)
				if err != nil {
					t.Errorf("goroutine %d acquire %d: %v", id, j, err)
					return
				}

				data, err := os.ReadFile(counterPath)
				if err != nil {
					t.Errorf("goroutine %d read: %v", id, err)
					_ = h.Release()
					return
				}
				n, err := strconv.Atoi(string(data))
				if err != nil {
					t.Errorf("goroutine %d parse: %v", id, err)
					_ = h.Release()
					return
				}
				if err := os.WriteFile(counterPath, []byte(fmt.Sprint(n+1)), 0644); err != nil {
					t.Errorf("goroutine %d write: %v", id, err)
				}

				if err := h.Release(); err != nil {
					t.Errorf("goroutine %d release: %v", id, err)
				}
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(counterPath)
	if err != nil {
		t.Fatalf("read final counter: %v", err)
	}
	got, err := strconv.Atoi(string(data))
	if err != nil {
		t.Fatalf("parse final counter: %v", err)
	}
	if want := goroutines * increments; got != want {
		t.Errorf("counter = %d, want %d (lost updates)", got, want)
	}
}
