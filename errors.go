package rewrite

import (
	"errors"
	"fmt"
)

// ============================================================
// Sentinel errors
// ============================================================
//
// Every message carries the "rewrite:" prefix. Callers match with
// errors.Is; typed errors below unwrap to one of these sentinels.
//
// Taxonomy:
//   - structural: ErrCrossSystemMix, ErrMalformedPattern, ErrLocked, ErrReleased
//   - domain:     ErrDomain (unmet built-in preconditions that cannot fall through)
//   - resource:   ErrResourceExhausted (always propagated)
//   - cancel:     ErrAborted (always propagated)

var (
	// ErrCrossSystemMix is returned when an invocation is built from terms
	// owned by two different systems.
	ErrCrossSystemMix = errors.New("rewrite: terms belong to different systems")

	// ErrMalformedPattern is returned for definitions whose left-hand side
	// cannot be stored as a rule (non-symbol head, non-symbol Pattern variable).
	ErrMalformedPattern = errors.New("rewrite: malformed pattern")

	// ErrLocked is returned by mutation entry points on a locked symbol.
	ErrLocked = errors.New("rewrite: symbol is locked")

	// ErrReleased is returned when mutating a symbol whose scope was popped.
	ErrReleased = errors.New("rewrite: symbol scope was released")

	// ErrDomain marks a built-in whose arguments are outside its domain,
	// e.g. Power[0, -1].
	ErrDomain = errors.New("rewrite: argument outside domain")

	// ErrResourceExhausted is returned when the depth or iteration budget
	// of an evaluation is exceeded.
	ErrResourceExhausted = errors.New("rewrite: evaluation budget exhausted")

	// ErrAborted is returned when the abort probe or the context fires.
	ErrAborted = errors.New("rewrite: evaluation aborted")
)

// ============================================================
// Typed errors
// ============================================================

// ResourceError reports which budget ran out.
type ResourceError struct {
	Resource string // "depth" or "iterations"
	Limit    int
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("rewrite: %s budget of %d exhausted", e.Resource, e.Limit)
}

// Is makes errors.Is(err, ErrResourceExhausted) hold.
func (e *ResourceError) Is(target error) bool { return target == ErrResourceExhausted }

// EvalError attaches the operation and offending term to a failure.
type EvalError struct {
	Op   string
	Term Expr
	Err  error
}

func (e *EvalError) Error() string {
	if e.Term == nil {
		return fmt.Sprintf("rewrite: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rewrite: %s %s: %v", e.Op, e.Term, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

func abortError(cause error) error {
	if cause == nil {
		return ErrAborted
	}
	return fmt.Errorf("%w: %v", ErrAborted, cause)
}

// propagates reports whether err must unwind to the top-level call
// rather than be turned into a Failed term.
func propagates(err error) bool {
	return errors.Is(err, ErrResourceExhausted) || errors.Is(err, ErrAborted)
}
