// Package task is the dependency-graph and state-machine engine over task
// documents.
//
// Each team has a directory tasks/<team> of one JSON document per task,
// a counter document allocating ids, and a single directory lock. Every
// mutation of the graph (creating, editing, deleting a task) runs as one
// critical section under that lock, because edits touch more than one
// file: the counter plus the new document, or a document plus the inverse
// edges on its neighbors. Reads take no lock.
//
// # Invariants
//
// Task ids are positive, monotonically increasing, and never reused, even
// after deletion. Blocks and BlockedBy are mutual inverses across the
// directory. The directed graph with edges from blocker to blocked is
// acyclic at all times; edits that would close a loop are rejected before
// anything is written.
//
// # State machine
//
// pending → in_progress → completed, one step at a time, and any status
// → deleted. Backward moves and skips are rejected. A task cannot move to
// in_progress or completed while any of its blockers is not completed.
// Deletion unlinks the document and strips the id from every other
// document's edge sets.
package task
