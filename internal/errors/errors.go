// Package errors provides centralized error definitions and error handling
// utilities for the crew codebase. It defines sentinel errors for the store's
// failure taxonomy, typed errors carrying structured context, and
// classification helpers.
//
// # Error Types
//
// Every store failure belongs to one of the taxonomy categories:
//   - NotFoundError: a team, member, document, or mailbox does not exist
//   - AlreadyExistsError: a team or member with that name already exists
//   - InvalidNameError: a team/member name violates the naming rules
//   - LockTimeoutError: an advisory lock was not acquired in time (retryable)
//   - CycleError: a task dependency edit would create a cycle
//   - UnknownTaskError: a referenced task id has no document
//   - TransitionError: a task status change the state machine forbids
//   - TeammatesActiveError: team deletion blocked by live members
//   - IOError: an underlying storage failure, passed through unchanged
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewNotFoundError("team", "backend-squad")
//	err := errors.NewTransitionError(4, "completed", "pending")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrLockTimeout) { ... }
//
//	var cycle *errors.CycleError
//	if errors.As(err, &cycle) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// Validation errors are raised strictly before any write, so a typed failure
// from a store operation always means no partial state was left behind.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Store sentinel errors. Typed errors below match these through Is, so
// callers can branch on the category without caring about the context fields.
var (
	// ErrNotFound indicates a requested resource does not exist.
	ErrNotFound = New("not found")
	// ErrAlreadyExists indicates a resource with that name already exists.
	ErrAlreadyExists = New("already exists")
	// ErrInvalidName indicates a team or member name violates the naming rules.
	ErrInvalidName = New("invalid name")
	// ErrLockTimeout indicates an advisory lock was not acquired within its bound.
	ErrLockTimeout = New("lock acquisition timed out")
	// ErrCycleDetected indicates a task dependency edit would create a cycle.
	ErrCycleDetected = New("dependency cycle detected")
	// ErrUnknownTask indicates a referenced task id has no document.
	ErrUnknownTask = New("unknown task")
	// ErrInvalidTransition indicates a task status change the state machine forbids.
	ErrInvalidTransition = New("invalid status transition")
	// ErrTeammatesActive indicates team deletion was blocked by live members.
	ErrTeammatesActive = New("teammates still active")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CrewError is the base interface for all crew errors. It extends the
// standard error interface with methods for matching and classification.
type CrewError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// -----------------------------------------------------------------------------
// Taxonomy Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("team", "backend-squad")
//	fmt.Println(err) // "team 'backend-squad' not found"
type NotFoundError struct {
	baseError
	Resource string
	Name     string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, name string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{message: fmt.Sprintf("%s '%s' not found", resource, name)},
		Resource:  resource,
		Name:      name,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.Resource, e.Name, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Name)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if errors.Is(target, ErrNotFound) {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("team", "backend-squad")
//	fmt.Println(err) // "team 'backend-squad' already exists"
type AlreadyExistsError struct {
	baseError
	Resource string
	Name     string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resource, name string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{message: fmt.Sprintf("%s '%s' already exists", resource, name)},
		Resource:  resource,
		Name:      name,
	}
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.Resource, e.Name)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	if errors.Is(target, ErrAlreadyExists) {
		return true
	}
	return e.baseError.Is(target)
}

// InvalidNameError represents a team or member name that violates the
// naming rules (allowed characters, length, reserved names).
//
// Example:
//
//	err := errors.NewInvalidNameError("agent", "team-lead", "name is reserved")
type InvalidNameError struct {
	baseError
	Kind   string // "team" or "agent"
	Name   string
	Reason string
}

// NewInvalidNameError creates a new InvalidNameError.
func NewInvalidNameError(kind, name, reason string) *InvalidNameError {
	return &InvalidNameError{
		baseError: baseError{message: fmt.Sprintf("invalid %s name %q: %s", kind, name, reason)},
		Kind:      kind,
		Name:      name,
		Reason:    reason,
	}
}

// Error returns the formatted error message.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid %s name %q: %s", e.Kind, e.Name, e.Reason)
}

// Is checks if this error matches the target.
func (e *InvalidNameError) Is(target error) bool {
	if _, ok := target.(*InvalidNameError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidName) {
		return true
	}
	return e.baseError.Is(target)
}

// LockTimeoutError represents a failed advisory lock acquisition. Lock
// timeouts leave zero side effects and are retryable by definition.
//
// Example:
//
//	err := errors.NewLockTimeoutError("/root/tasks/squad/.lock", 10*time.Second)
type LockTimeoutError struct {
	baseError
	Path    string
	Timeout time.Duration
}

// NewLockTimeoutError creates a new LockTimeoutError.
func NewLockTimeoutError(path string, timeout time.Duration) *LockTimeoutError {
	return &LockTimeoutError{
		baseError: baseError{
			message:   fmt.Sprintf("lock on %s not acquired within %s", path, timeout),
			retryable: true,
		},
		Path:    path,
		Timeout: timeout,
	}
}

// WithCause adds a cause to the error.
func (e *LockTimeoutError) WithCause(cause error) *LockTimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *LockTimeoutError) Error() string {
	base := fmt.Sprintf("lock on %s not acquired within %s", e.Path, e.Timeout)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *LockTimeoutError) Is(target error) bool {
	if _, ok := target.(*LockTimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrLockTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// CycleError represents a task dependency edit that would make the
// dependency graph cyclic. From and To identify the offending edge in
// must-complete-before direction.
//
// Example:
//
//	err := errors.NewCycleError(2, 1)
//	fmt.Println(err) // "dependency cycle detected: edge from task 2 to task 1 closes a loop"
type CycleError struct {
	baseError
	From int
	To   int
}

// NewCycleError creates a new CycleError.
func NewCycleError(from, to int) *CycleError {
	return &CycleError{
		baseError: baseError{
			message: fmt.Sprintf("dependency cycle detected: edge from task %d to task %d closes a loop", from, to),
		},
		From: from,
		To:   to,
	}
}

// Error returns the formatted error message.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: edge from task %d to task %d closes a loop", e.From, e.To)
}

// Is checks if this error matches the target.
func (e *CycleError) Is(target error) bool {
	if _, ok := target.(*CycleError); ok {
		return true
	}
	if errors.Is(target, ErrCycleDetected) {
		return true
	}
	return e.baseError.Is(target)
}

// UnknownTaskError represents a reference to a task id that has no document.
//
// Example:
//
//	err := errors.NewUnknownTaskError(17)
//	fmt.Println(err) // "referenced task 17 does not exist"
type UnknownTaskError struct {
	baseError
	ID int
}

// NewUnknownTaskError creates a new UnknownTaskError.
func NewUnknownTaskError(id int) *UnknownTaskError {
	return &UnknownTaskError{
		baseError: baseError{message: fmt.Sprintf("referenced task %d does not exist", id)},
		ID:        id,
	}
}

// Error returns the formatted error message.
func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("referenced task %d does not exist", e.ID)
}

// Is checks if this error matches the target.
func (e *UnknownTaskError) Is(target error) bool {
	if _, ok := target.(*UnknownTaskError); ok {
		return true
	}
	if errors.Is(target, ErrUnknownTask) {
		return true
	}
	return e.baseError.Is(target)
}

// TransitionError represents a task status change the state machine forbids.
// Reason optionally names the precondition that failed (e.g. an incomplete
// blocker) for transitions that are shaped legally but not currently allowed.
//
// Example:
//
//	err := errors.NewTransitionError(4, "completed", "pending")
//	fmt.Println(err) // "cannot transition task 4 from \"completed\" to \"pending\""
type TransitionError struct {
	baseError
	ID     int
	From   string
	To     string
	Reason string
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(id int, from, to string) *TransitionError {
	return &TransitionError{
		baseError: baseError{
			message: fmt.Sprintf("cannot transition task %d from %q to %q", id, from, to),
		},
		ID:   id,
		From: from,
		To:   to,
	}
}

// WithReason adds the failed precondition to the error context.
func (e *TransitionError) WithReason(reason string) *TransitionError {
	e.Reason = reason
	return e
}

// Error returns the formatted error message.
func (e *TransitionError) Error() string {
	base := fmt.Sprintf("cannot transition task %d from %q to %q", e.ID, e.From, e.To)
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", base, e.Reason)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TransitionError) Is(target error) bool {
	if _, ok := target.(*TransitionError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidTransition) {
		return true
	}
	return e.baseError.Is(target)
}

// TeammatesActiveError represents a team deletion blocked because members
// are still alive.
//
// Example:
//
//	err := errors.NewTeammatesActiveError("squad", []string{"coder", "tester"})
//	fmt.Println(err) // "team 'squad' has active teammates: coder, tester"
type TeammatesActiveError struct {
	baseError
	Team  string
	Alive []string
}

// NewTeammatesActiveError creates a new TeammatesActiveError.
func NewTeammatesActiveError(team string, alive []string) *TeammatesActiveError {
	return &TeammatesActiveError{
		baseError: baseError{
			message: fmt.Sprintf("team '%s' has active teammates: %s", team, strings.Join(alive, ", ")),
		},
		Team:  team,
		Alive: alive,
	}
}

// Error returns the formatted error message.
func (e *TeammatesActiveError) Error() string {
	return fmt.Sprintf("team '%s' has active teammates: %s", e.Team, strings.Join(e.Alive, ", "))
}

// Is checks if this error matches the target.
func (e *TeammatesActiveError) Is(target error) bool {
	if _, ok := target.(*TeammatesActiveError); ok {
		return true
	}
	if errors.Is(target, ErrTeammatesActive) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// IO Errors
// -----------------------------------------------------------------------------

// IOError wraps an underlying storage failure. The cause is carried through
// Unwrap unchanged rather than reinterpreted, so callers can still match the
// original condition (e.g. fs.ErrPermission) through the wrapper.
//
// Example:
//
//	err := errors.NewIOError("write", "/root/teams/squad/config.json", cause)
type IOError struct {
	Op   string
	Path string
	Err  error
}

// NewIOError creates a new IOError.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// Error returns the formatted error message.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error unchanged.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is checks if this error matches the target.
func (e *IOError) Is(target error) bool {
	if _, ok := target.(*IOError); ok {
		return true
	}
	return errors.Is(e.Err, target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Lock timeouts are retryable: they guarantee
// zero side effects.
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    time.Sleep(backoff)
//	    return retry(operation)
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var crewErr CrewError
	if As(err, &crewErr) {
		return crewErr.IsRetryable()
	}

	return Is(err, ErrLockTimeout)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with an additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "create task")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "spawn teammate %s", name)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
