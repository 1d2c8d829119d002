package task

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/crewhq/crew/internal/docstore"
	"github.com/crewhq/crew/internal/errors"
	"github.com/crewhq/crew/internal/logging"
)

// Engine runs a team's task graph: one JSON document per task under
// tasks/<team>, a counter document for id allocation, and one directory
// lock serializing every mutation of the edge set.
//
// An Engine is stateless apart from its configuration; any number of
// Engine values across any number of processes may work on the same root
// concurrently.
type Engine struct {
	root    string
	timeout time.Duration
	logger  *logging.Logger
}

// NewEngine creates an Engine rooted at the given store directory.
func NewEngine(root string, opts ...Option) (*Engine, error) {
	if root == "" {
		return nil, errors.New("task: root directory is required")
	}

	e := &Engine{
		root:    root,
		timeout: docstore.DefaultLockTimeout,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Root returns the store root this engine operates on.
func (e *Engine) Root() string {
	return e.root
}

// AllocateID reserves and returns the next unused task id for the team.
// Ids are monotonically increasing positive integers and are never
// reused; concurrent allocators each get a distinct value.
func (e *Engine) AllocateID(ctx context.Context, team string) (int, error) {
	if err := e.requireTeamDir(team); err != nil {
		return 0, err
	}

	var id int
	err := docstore.WithLock(ctx, LockPath(e.root, team), e.timeout, func() error {
		next, err := e.nextIDLocked(team)
		if err != nil {
			return err
		}
		id = next
		return docstore.WriteAtomic(counterPath(e.root, team), counterDoc{NextID: id + 1})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Create writes a new task with the next unused id and status pending.
//
// Everything happens in one critical section under the team's graph lock:
// the id is read from the counter, every referenced dependency is checked
// to exist, the new edges are checked to keep the graph acyclic, and only
// then are the counter, the new document, and the inverse edges on the
// referenced documents written. A validation failure writes nothing.
func (e *Engine) Create(ctx context.Context, team string, req CreateRequest) (Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return Task{}, errors.New("task: title must not be empty")
	}
	if err := e.requireTeamDir(team); err != nil {
		return Task{}, err
	}

	blocks := dedupIDs(req.Blocks)
	blockedBy := dedupIDs(req.BlockedBy)

	var created Task
	err := docstore.WithLock(ctx, LockPath(e.root, team), e.timeout, func() error {
		id, err := e.nextIDLocked(team)
		if err != nil {
			return err
		}

		all, err := e.loadAll(team)
		if err != nil {
			return err
		}
		for _, ref := range append(append([]int{}, blocks...), blockedBy...) {
			if _, ok := all[ref]; !ok {
				return errors.NewUnknownTaskError(ref)
			}
		}

		adj := buildAdjacency(all)
		var cand []edge
		for _, to := range blocks {
			cand = append(cand, edge{From: id, To: to})
		}
		for _, from := range blockedBy {
			cand = append(cand, edge{From: from, To: id})
		}
		if err := checkAcyclic(adj, cand); err != nil {
			return err
		}

		created = normalized(Task{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			ActiveForm:  req.ActiveForm,
			Status:      StatusPending,
			Owner:       req.Owner,
			Blocks:      blocks,
			BlockedBy:   blockedBy,
			Metadata:    req.Metadata,
		})

		if err := docstore.WriteAtomic(counterPath(e.root, team), counterDoc{NextID: id + 1}); err != nil {
			return err
		}
		if err := e.writeTaskLocked(team, created); err != nil {
			return err
		}
		for _, to := range blocks {
			other := all[to]
			if !other.HasBlocker(id) {
				other.BlockedBy = append(other.BlockedBy, id)
				if err := e.writeTaskLocked(team, other); err != nil {
					return err
				}
			}
		}
		for _, from := range blockedBy {
			other := all[from]
			if !other.HasBlock(id) {
				other.Blocks = append(other.Blocks, id)
				if err := e.writeTaskLocked(team, other); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Task{}, err
	}

	e.logger.WithTeam(team).WithOp("task.create").Info("task created",
		"task_id", created.ID, "title", created.Title)
	return created, nil
}

// Update applies a partial edit to one task in a critical section under
// the team's graph lock. Validation failures leave every document
// untouched.
//
// Dependency additions are re-validated for existence, self-reference,
// and acyclicity, and the inverse edges land on the affected documents in
// the same critical section. Status moves follow the machine in
// [Status.CanTransition]; moving to in_progress or completed while any
// blocker is not completed is refused. Setting the status a task already
// has is a no-op.
//
// A deleted status wins over everything else in the request: the document
// is unlinked, the id is stripped from every other task's edge sets, and
// dependency or metadata edits in the same request are discarded. The id
// is never reissued.
func (e *Engine) Update(ctx context.Context, team string, id int, req UpdateRequest) (Task, error) {
	if err := e.requireTeamDir(team); err != nil {
		return Task{}, err
	}

	var updated Task
	err := docstore.WithLock(ctx, LockPath(e.root, team), e.timeout, func() error {
		t, err := e.readTask(team, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			if strings.TrimSpace(*req.Title) == "" {
				return errors.New("task: title must not be empty")
			}
			t.Title = *req.Title
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		if req.ActiveForm != nil {
			t.ActiveForm = *req.ActiveForm
		}
		if req.Owner != nil {
			t.Owner = *req.Owner
		}

		if req.Status != nil && *req.Status == StatusDeleted {
			if err := e.deleteLocked(team, id); err != nil {
				return err
			}
			t.Status = StatusDeleted
			updated = t
			return nil
		}

		pending, err := e.applyDependencyEdits(team, &t, req)
		if err != nil {
			return err
		}

		if req.Metadata != nil {
			if t.Metadata == nil {
				t.Metadata = make(map[string]any)
			}
			for k, v := range req.Metadata {
				if v == nil {
					delete(t.Metadata, k)
				} else {
					t.Metadata[k] = v
				}
			}
			if len(t.Metadata) == 0 {
				t.Metadata = nil
			}
		}

		if req.Status != nil && *req.Status != t.Status {
			next := *req.Status
			if !next.IsValid() || !t.Status.CanTransition(next) {
				return errors.NewTransitionError(id, string(t.Status), string(next))
			}
			if next == StatusInProgress || next == StatusCompleted {
				if err := e.checkBlockersCompleted(team, t, next); err != nil {
					return err
				}
			}
			t.Status = next
		}

		if err := e.writeTaskLocked(team, t); err != nil {
			return err
		}
		for _, otherID := range sortedIDs(pending) {
			if err := e.writeTaskLocked(team, pending[otherID]); err != nil {
				return err
			}
		}
		updated = t
		return nil
	})
	if err != nil {
		return Task{}, err
	}

	e.logger.WithTeam(team).WithOp("task.update").Info("task updated",
		"task_id", id, "status", updated.Status)
	return updated, nil
}

// applyDependencyEdits validates and applies the additive edge edits on t,
// returning the other documents that need their inverse edges written.
// Nothing is written here; the caller commits under the held lock.
func (e *Engine) applyDependencyEdits(team string, t *Task, req UpdateRequest) (map[int]Task, error) {
	addBlocks := dedupIDs(req.AddBlocks)
	addBlockedBy := dedupIDs(req.AddBlockedBy)
	if len(addBlocks)+len(addBlockedBy) == 0 {
		return nil, nil
	}

	all, err := e.loadAll(team)
	if err != nil {
		return nil, err
	}
	all[t.ID] = *t

	for _, ref := range append(append([]int{}, addBlocks...), addBlockedBy...) {
		if ref == t.ID {
			return nil, errors.NewCycleError(t.ID, t.ID)
		}
		if _, ok := all[ref]; !ok {
			return nil, errors.NewUnknownTaskError(ref)
		}
	}

	adj := buildAdjacency(all)
	var cand []edge
	for _, to := range addBlocks {
		if !t.HasBlock(to) {
			cand = append(cand, edge{From: t.ID, To: to})
		}
	}
	for _, from := range addBlockedBy {
		if !t.HasBlocker(from) {
			cand = append(cand, edge{From: from, To: t.ID})
		}
	}
	if err := checkAcyclic(adj, cand); err != nil {
		return nil, err
	}

	pending := make(map[int]Task)
	for _, to := range addBlocks {
		if t.HasBlock(to) {
			continue
		}
		t.Blocks = append(t.Blocks, to)
		other := all[to]
		if !other.HasBlocker(t.ID) {
			other.BlockedBy = append(other.BlockedBy, t.ID)
			pending[to] = other
		}
	}
	for _, from := range addBlockedBy {
		if t.HasBlocker(from) {
			continue
		}
		t.BlockedBy = append(t.BlockedBy, from)
		other := all[from]
		if !other.HasBlock(t.ID) {
			other.Blocks = append(other.Blocks, t.ID)
			pending[from] = other
		}
	}
	return pending, nil
}

// checkBlockersCompleted refuses a move to in_progress or completed while
// any blocker is not completed. Blockers whose documents are gone were
// deleted and no longer block.
func (e *Engine) checkBlockersCompleted(team string, t Task, next Status) error {
	for _, blockerID := range t.BlockedBy {
		blocker, err := e.readTask(team, blockerID)
		if err != nil {
			if errors.Is(err, errors.ErrUnknownTask) {
				continue
			}
			return err
		}
		if blocker.Status != StatusCompleted {
			return errors.NewTransitionError(t.ID, string(t.Status), string(next)).
				WithReason(fmt.Sprintf("blocked by task %d (status %s)", blockerID, blocker.Status))
		}
	}
	return nil
}

// deleteLocked unlinks the task's document and strips its id from every
// other document's edge sets.
func (e *Engine) deleteLocked(team string, id int) error {
	if err := docstore.Remove(taskPath(e.root, team, id)); err != nil {
		return err
	}

	all, err := e.loadAll(team)
	if err != nil {
		return err
	}
	for _, otherID := range sortedIDs(all) {
		other := all[otherID]
		blocks, changedBlocks := removeID(other.Blocks, id)
		blockedBy, changedBlockedBy := removeID(other.BlockedBy, id)
		if !changedBlocks && !changedBlockedBy {
			continue
		}
		other.Blocks, other.BlockedBy = blocks, blockedBy
		if err := e.writeTaskLocked(team, other); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one task document. No lock is taken; atomic replacement
// keeps each read internally consistent.
func (e *Engine) Get(team string, id int) (Task, error) {
	if err := e.requireTeamDir(team); err != nil {
		return Task{}, err
	}
	return e.readTask(team, id)
}

// List returns the team's tasks sorted by id. Documents are read one by
// one without a lock: each is internally consistent, but the slice is not
// a cross-file snapshot.
func (e *Engine) List(team string) ([]Task, error) {
	if err := e.requireTeamDir(team); err != nil {
		return nil, err
	}

	all, err := e.loadAll(team)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(all))
	for _, id := range sortedIDs(all) {
		tasks = append(tasks, all[id])
	}
	return tasks, nil
}

// ResetOwner reverts every pending or in_progress task owned by the given
// member to pending with no owner. Completed work keeps its owner. Used
// when a member dies or is removed so its claims do not dangle.
func (e *Engine) ResetOwner(ctx context.Context, team, owner string) error {
	if owner == "" {
		return errors.New("task: owner must not be empty")
	}
	if err := e.requireTeamDir(team); err != nil {
		return err
	}

	var reset []int
	err := docstore.WithLock(ctx, LockPath(e.root, team), e.timeout, func() error {
		all, err := e.loadAll(team)
		if err != nil {
			return err
		}
		for _, id := range sortedIDs(all) {
			t := all[id]
			if t.Owner != owner {
				continue
			}
			if t.Status != StatusPending && t.Status != StatusInProgress {
				continue
			}
			t.Status = StatusPending
			t.Owner = ""
			if err := e.writeTaskLocked(team, t); err != nil {
				return err
			}
			reset = append(reset, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(reset) > 0 {
		e.logger.WithTeam(team).WithAgent(owner).WithOp("task.reset_owner").Info(
			"tasks reset to pending", "task_ids", reset)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// requireTeamDir maps a missing task directory to NotFound before any lock
// on it is attempted.
func (e *Engine) requireTeamDir(team string) error {
	fi, err := os.Stat(Dir(e.root, team))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("team", team)
		}
		return errors.NewIOError("stat", Dir(e.root, team), err)
	}
	if !fi.IsDir() {
		return errors.NewIOError("stat", Dir(e.root, team), errors.New("not a directory"))
	}
	return nil
}

// nextIDLocked returns the next unused id without advancing the counter.
// A missing or nonsense counter is rebuilt from the documents on disk.
func (e *Engine) nextIDLocked(team string) (int, error) {
	cur, err := docstore.Read[counterDoc](counterPath(e.root, team))
	if err == nil && cur.NextID >= 1 {
		return cur.NextID, nil
	}
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return 0, err
	}

	maxID := 0
	all, err := e.loadAll(team)
	if err != nil {
		return 0, err
	}
	for id := range all {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}

// readTask loads one task document, mapping a missing file to UnknownTask.
func (e *Engine) readTask(team string, id int) (Task, error) {
	t, err := docstore.Read[Task](taskPath(e.root, team, id))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Task{}, errors.NewUnknownTaskError(id)
		}
		return Task{}, err
	}
	return normalized(t), nil
}

// loadAll reads every task document in the team directory. Documents
// unlinked mid-scan are skipped. Mutating callers hold the team lock;
// bare readers rely on atomic replacement.
func (e *Engine) loadAll(team string) (map[int]Task, error) {
	entries, err := os.ReadDir(Dir(e.root, team))
	if err != nil {
		return nil, errors.NewIOError("readdir", Dir(e.root, team), err)
	}

	all := make(map[int]Task, len(entries))
	for _, entry := range entries {
		id, ok := parseTaskID(entry.Name())
		if !ok {
			continue
		}
		t, err := e.readTask(team, id)
		if err != nil {
			if errors.Is(err, errors.ErrUnknownTask) {
				continue
			}
			return nil, err
		}
		all[id] = t
	}
	return all, nil
}

func (e *Engine) writeTaskLocked(team string, t Task) error {
	return docstore.WriteAtomic(taskPath(e.root, team, t.ID), normalized(t))
}

func normalized(t Task) Task {
	if t.Blocks == nil {
		t.Blocks = []int{}
	}
	if t.BlockedBy == nil {
		t.BlockedBy = []int{}
	}
	return t
}

func dedupIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// removeID drops the first occurrence of id, reporting whether anything
// changed. Edge sets are kept duplicate-free, so one pass is enough.
func removeID(ids []int, id int) ([]int, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func sortedIDs(tasks map[int]Task) []int {
	ids := make([]int, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
