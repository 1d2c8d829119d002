package docstore

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/filelock"
)

// DefaultLockTimeout bounds lock acquisition for ordinary document
// modifications. Long-poll reads carry their own, larger budget.
const DefaultLockTimeout = 5 * time.Second

// Read loads and decodes the JSON document at path. It takes no lock:
// atomic replacement guarantees the bytes on disk are always a complete
// document. A missing file yields a not-found error; undecodable content
// yields an IO error.
func Read[T any](path string) (T, error) {
	var doc T

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, errors.NewNotFoundError("document", path).WithCause(err)
		}
		return doc, errors.NewIOError("read", path, err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, errors.NewIOError("decode", path, err)
	}
	return doc, nil
}

// Exists reports whether a document is present at path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewIOError("stat", path, err)
}

// WriteAtomic marshals doc and replaces the document at path in one
// atomic step: the bytes go to a sibling temp file, are flushed to disk,
// and the temp file is renamed over the target. Readers never observe a
// partial document. If the rename fails the temp file is cleaned up on a
// best-effort basis.
//
// Callers mutating shared state hold the covering lock; WriteAtomic itself
// does not lock.
func WriteAtomic(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewIOError("encode", path, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.NewIOError("create", tmp, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.NewIOError("write", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.NewIOError("sync", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.NewIOError("close", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return errors.NewIOError("rename", path, err)
	}
	return nil
}

// Modify runs one locked read-modify-write cycle on the document at path.
//
// It acquires lockPath (bounded by timeout), reads the current document,
// and calls fn with the decoded value and whether the document existed.
// When the document is absent fn receives the zero value and false. The
// value fn returns is written atomically and returned to the caller.
//
// fn must be a pure transform: no I/O, no side effects. If fn returns an
// error the document is left untouched and the error comes back unchanged,
// so validation failures are indistinguishable from never having called
// Modify at all. Lock timeouts and context cancellation likewise leave no
// side effects.
func Modify[T any](ctx context.Context, path, lockPath string, timeout time.Duration, fn func(cur T, exists bool) (T, error)) (T, error) {
	var zero T

	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	h, err := filelock.Acquire(ctx, lockPath, timeout)
	if err != nil {
		return zero, err
	}
	defer h.Release()

	var cur T
	exists := true
	cur, err = Read[T](path)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return zero, err
		}
		exists = false
	}

	next, err := fn(cur, exists)
	if err != nil {
		return zero, err
	}

	if err := WriteAtomic(path, next); err != nil {
		return zero, err
	}
	return next, nil
}

// WithLock acquires lockPath, runs fn while holding it, and releases the
// lock when fn returns. It exists for critical sections spanning several
// documents under one directory-scoped lock, where [Modify] on a single
// path is not enough.
func WithLock(ctx context.Context, lockPath string, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	h, err := filelock.Acquire(ctx, lockPath, timeout)
	if err != nil {
		return err
	}
	defer h.Release()

	return fn()
}

// Remove unlinks the document at path. Removing a document that does not
// exist is a no-op.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError("remove", path, err)
	}
	return nil
}

// EnsureDir creates the directory at path (and any missing parents).
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.NewIOError("mkdir", path, err)
	}
	return nil
}
