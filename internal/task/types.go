package task

// Status is a task's position in its lifecycle.
type Status string

const (
	// StatusPending indicates the task is waiting to be picked up.
	StatusPending Status = "pending"

	// StatusInProgress indicates a member is actively working the task.
	StatusInProgress Status = "in_progress"

	// StatusCompleted indicates the task finished successfully.
	StatusCompleted Status = "completed"

	// StatusDeleted indicates the task was removed. The document is gone;
	// the status only appears on the value returned by the deleting call.
	StatusDeleted Status = "deleted"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if this is a recognized status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDeleted:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a task may move from s to next. The
// machine moves strictly forward one step at a time: pending→in_progress
// and in_progress→completed. Any status may move to deleted. Everything
// else, including every backward move and the pending→completed skip, is
// forbidden. A same-status update is a no-op, not a transition, and is
// not routed through this check.
func (s Status) CanTransition(next Status) bool {
	if next == StatusDeleted {
		return true
	}
	switch {
	case s == StatusPending && next == StatusInProgress:
		return true
	case s == StatusInProgress && next == StatusCompleted:
		return true
	default:
		return false
	}
}

// Task is one task document.
//
// Blocks and BlockedBy are kept mutual inverses across the team's
// documents: id appearing in t.Blocks implies t.ID appears in that task's
// BlockedBy, and vice versa. The directed graph they form (edges pointing
// from blocker to blocked) is acyclic at all times.
type Task struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ActiveForm  string         `json:"activeForm,omitempty"` // Present-tense form shown while in progress
	Status      Status         `json:"status"`
	Owner       string         `json:"owner,omitempty"` // Member name; empty when unowned
	Blocks      []int          `json:"blocks"`          // Tasks that cannot proceed until this one completes
	BlockedBy   []int          `json:"blockedBy"`       // Tasks that must complete before this one proceeds
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// HasBlock reports whether id is in the task's Blocks set.
func (t Task) HasBlock(id int) bool {
	return containsID(t.Blocks, id)
}

// HasBlocker reports whether id is in the task's BlockedBy set.
func (t Task) HasBlocker(id int) bool {
	return containsID(t.BlockedBy, id)
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// CreateRequest carries the fields for a new task. Title is required;
// everything else is optional. Dependency ids must reference existing
// tasks and must not make the graph cyclic.
type CreateRequest struct {
	Title       string
	Description string
	ActiveForm  string
	Owner       string
	Blocks      []int // Existing tasks this one will gate
	BlockedBy   []int // Existing tasks that must complete first
	Metadata    map[string]any
}

// UpdateRequest carries a partial edit. Nil pointer fields are left
// unchanged; a pointer to the zero value clears the field. Dependency
// edits are additive only. Metadata merges key by key, with a nil value
// deleting the key.
type UpdateRequest struct {
	Title        *string
	Description  *string
	ActiveForm   *string
	Status       *Status
	Owner        *string
	AddBlocks    []int
	AddBlockedBy []int
	Metadata     map[string]any
}
