package reactive

import (
	"errors"
	"fmt"

	"github.com/lumen-dev/lumen/internal/diag"
)

// ErrCycle matches any CycleError via errors.Is.
var ErrCycle = errors.New("lumen: cyclic dependency")

// ErrFlushDivergence matches any FlushDivergenceError via errors.Is.
var ErrFlushDivergence = errors.New("lumen: flush failed to converge")

// CycleError reports a computation that transitively read itself while it
// was being computed. It is raised synchronously, as a panic, at the
// offending Get call; the computation's state is left unchanged so the
// next read retries.
type CycleError struct {
	// Label is the display name of the node that detected the cycle,
	// if one was set.
	Label string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s (%q)", diag.Describe(diag.CodeCycle), e.Label)
	}
	return diag.Describe(diag.CodeCycle)
}

// Is reports a match against ErrCycle.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// FlushDivergenceError reports a flush that failed to converge within the
// runtime's pass bound: reactions kept writing cells that re-trigger other
// reactions. It aborts the flush and surfaces, as a panic, from the write
// or Batch call that triggered it.
type FlushDivergenceError struct {
	// Passes is the bound that was exhausted.
	Passes int
}

// Error implements the error interface.
func (e *FlushDivergenceError) Error() string {
	return fmt.Sprintf("%s after %d passes", diag.Describe(diag.CodeDivergence), e.Passes)
}

// Is reports a match against ErrFlushDivergence.
func (e *FlushDivergenceError) Is(target error) bool { return target == ErrFlushDivergence }

// ReactionError wraps a panic recovered from a reaction body during a
// flush. The failing reaction's cleanup state is preserved; independent
// reactions in the same flush still run, and the first unhandled
// ReactionError is rethrown once the flush has settled.
type ReactionError struct {
	// Name is the reaction's display name, if one was set.
	Name string

	// Err is the recovered failure.
	Err error
}

// Error implements the error interface.
func (e *ReactionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s (%q): %v", diag.Describe(diag.CodeReaction), e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v", diag.Describe(diag.CodeReaction), e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ReactionError) Unwrap() error { return e.Err }
