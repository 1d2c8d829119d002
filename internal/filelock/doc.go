// Package filelock provides advisory cross-process locks for the crew store.
//
// Every mutation of a store document happens under an exclusive flock(2)
// lock on a sidecar lock file, so independently spawned agent processes
// serialize their read-modify-write cycles without any shared server.
// Readers do not take locks; they rely on atomic renames leaving documents
// whole at all times.
//
// # Architecture
//
// [Acquire] opens (creating if needed) the lock file and attempts a
// non-blocking exclusive flock in a retry loop, sleeping briefly between
// attempts until the timeout elapses. On success it returns a [Handle]
// whose Release drops the lock and closes the descriptor. A timed-out
// acquisition returns a lock-timeout error and leaves no side effects, so
// callers can safely retry.
//
// Locks are taken on dedicated sidecar files (for example ".lock" markers
// next to the data they guard), never on the documents themselves: document
// writes go through rename, which would silently detach any lock held on
// the replaced inode.
//
// Lock files persist after release. Deleting one while another process
// still holds its descriptor would let a later acquirer lock a fresh inode
// and defeat the exclusion.
//
// # Basic Usage
//
//	h, err := filelock.Acquire(ctx, lockPath, 5*time.Second)
//	if err != nil {
//	    return err // errors.ErrLockTimeout if contended past the deadline
//	}
//	defer h.Release()
//
//	// read, modify, and atomically replace the guarded documents
//
// # Reentrancy
//
// Handles are not reentrant. Acquiring a path while already holding it
// deadlocks until the timeout, exactly as it would across processes. Each
// logical operation acquires every lock it needs once, up front.
package filelock
