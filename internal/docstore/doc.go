// Package docstore provides the atomic JSON document layer of the crew store.
//
// Every piece of durable state (team configs, task documents, id counters,
// mailboxes) is a single JSON document on disk. Documents are written
// atomically and mutated through pure transform functions executed under an
// advisory lock, giving concurrent agent processes read-modify-write cycles
// that never interleave and never expose partial files.
//
// # Architecture
//
// Writes never touch the target in place. [WriteAtomic] marshals the
// document, writes it to a sibling temp file, flushes it to disk, and
// renames it over the target. Readers consequently need no locks: any
// [Read] observes either the old or the new document, never a torn one.
//
// [Modify] is the read-modify-write primitive. It acquires the named lock
// via [filelock.Acquire], reads the current document (reporting whether it
// exists), applies the caller's transform, and atomically replaces the
// document with the result. The transform is pure: it sees decoded state
// and returns the replacement or an error. Any transform error aborts the
// cycle before bytes are written, so failed validation leaves no trace.
//
// The lock path is always a sidecar, never the document itself: renaming
// over a flocked file would strand the waiters on a dead inode. One lock
// may cover several documents; operations that must update multiple
// documents together take the covering lock once via [WithLock] and then
// use [Read] and [WriteAtomic] inside it.
//
// # No Cross-File Ordering
//
// The store gives no ordering guarantees between writes to different
// paths. State that must change together either lives in one document or
// is mutated only under a shared directory-scoped lock.
package docstore
