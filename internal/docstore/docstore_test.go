package docstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/filelock"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteAtomicReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	want := testDoc{Name: "squad", Count: 3}
	if err := WriteAtomic(path, want); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	got, err := Read[testDoc](path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}

	// No temp file left behind
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after successful write")
	}
}

func TestWriteAtomicIndented(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	if err := WriteAtomic(path, testDoc{Name: "squad"}); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"name\"") {
		t.Errorf("document should be indented, got %q", data)
	}
}

func TestReadMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.json")

	_, err := Read[testDoc](path)
	if err == nil {
		t.Fatal("Read() of missing document should fail")
	}
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Read() error = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read() error should carry the underlying not-exist cause, got %v", err)
	}
}

func TestReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	_, err := Read[testDoc](path)
	if err == nil {
		t.Fatal("Read() of corrupt document should fail")
	}
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Read() error = %v, want *errors.IOError", err)
	}
	if ioErr.Op != "decode" {
		t.Errorf("Op = %q, want %q", ioErr.Op, "decode")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	ok, err := Exists(path)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists() = true for missing document")
	}

	if err := WriteAtomic(path, testDoc{}); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	ok, err = Exists(path)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists() = false for present document")
	}
}

func TestModifyCreatesDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	lockPath := filepath.Join(dir, ".lock")

	got, err := Modify(context.Background(), path, lockPath, time.Second,
		func(cur testDoc, exists bool) (testDoc, error) {
			if exists {
				t.Error("exists = true for first write")
			}
			cur.Name = "fresh"
			cur.Count = 1
			return cur, nil
		})
	if err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if got.Name != "fresh" || got.Count != 1 {
		t.Errorf("Modify() = %+v, want fresh/1", got)
	}

	onDisk, err := Read[testDoc](path)
	if err != nil {
		t.Fatalf("Read() after Modify error = %v", err)
	}
	if onDisk != got {
		t.Errorf("document on disk = %+v, want %+v", onDisk, got)
	}
}

func TestModifyExistingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	lockPath := filepath.Join(dir, ".lock")

	if err := WriteAtomic(path, testDoc{Name: "squad", Count: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := Modify(context.Background(), path, lockPath, time.Second,
		func(cur testDoc, exists bool) (testDoc, error) {
			if !exists {
				t.Error("exists = false for present document")
			}
			if cur.Name != "squad" {
				t.Errorf("cur.Name = %q, want %q", cur.Name, "squad")
			}
			cur.Count++
			return cur, nil
		})
	if err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if got.Count != 2 {
		t.Errorf("Count = %d, want 2", got.Count)
	}
}

func TestModifyTransformErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	lockPath := filepath.Join(dir, ".lock")

	if err := WriteAtomic(path, testDoc{Name: "before"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sentinel := errors.New("validation failed")
	_, err := Modify(context.Background(), path, lockPath, time.Second,
		func(cur testDoc, exists bool) (testDoc, error) {
			cur.Name = "after"
			return cur, sentinel
		})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Modify() error = %v, want the transform's own error", err)
	}

	// Document untouched
	got, err := Read[testDoc](path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Name != "before" {
		t.Errorf("Name = %q, want %q (failed transform must not write)", got.Name, "before")
	}
}

func TestModifyLockTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	lockPath := filepath.Join(dir, ".lock")

	h, err := filelock.Acquire(context.Background(), lockPath, time.Second)
	if err != nil {
		t.Fatalf("hold lock: %v", err)
	}
	defer h.Release()

	_, err = Modify(context.Background(), path, lockPath, 100*time.Millisecond,
		func(cur testDoc, exists bool) (testDoc, error) {
			t.Error("transform must not run when the lock is unavailable")
			return cur, nil
		})
	if !errors.Is(err, errors.ErrLockTimeout) {
		t.Fatalf("Modify() error = %v, want ErrLockTimeout", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("timed-out Modify must not create the document")
	}
}

func TestWithLock(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	ran := false
	err := WithLock(context.Background(), lockPath, time.Second, func() error {
		ran = true
		// The covering lock is held here
		_, ok, err := filelock.TryAcquire(lockPath)
		if err != nil {
			return err
		}
		if ok {
			t.Error("lock should be held during fn")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock() error = %v", err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}

	// Released afterwards
	h, ok, err := filelock.TryAcquire(lockPath)
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if !ok {
		t.Fatal("lock should be free after WithLock returns")
	}
	_ = h.Release()
}

func TestWithLockPropagatesError(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, ".lock")

	sentinel := errors.New("inner failure")
	err := WithLock(context.Background(), lockPath, time.Second, func() error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("WithLock() error = %v, want inner error", err)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	// Removing a missing document is a no-op
	if err := Remove(path); err != nil {
		t.Fatalf("Remove() of missing document error = %v", err)
	}

	if err := WriteAtomic(path, testDoc{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("document should be gone after Remove")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	if err := EnsureDir(nested); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(nested)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("EnsureDir should create a directory")
	}

	// Idempotent
	if err := EnsureDir(nested); err != nil {
		t.Fatalf("EnsureDir() second call error = %v", err)
	}
}

// TestConcurrentModify hammers one document with concurrent increments.
// The final count must equal the number of increments: under the lock each
// transform sees the previous writer's result.
func TestConcurrentModify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counter.json")
	lockPath := filepath.Join(dir, ".lock")

	const goroutines = 10
	const increments = 20

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range increments {
				_, err := Modify(context.Background(), path, lockPath, 10*time.Second,
					func(cur testDoc, exists bool) (testDoc, error) {
						cur.Count++
						return cur, nil
					})
				if err != nil {
					t.Errorf("goroutine %d modify %d: %v", id, j, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	got, err := Read[testDoc](path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := goroutines * increments; got.Count != want {
		t.Errorf("Count = %d, want %d (lost updates)", got.Count, want)
	}
}
