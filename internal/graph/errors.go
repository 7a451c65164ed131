package graph

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by graph construction, scheduling and execution.
// Callers match them with errors.Is; the returned errors carry node context.
var (
	// ErrCycleDetected means the scheduler could not order every reachable node.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrUnknownSource means a feed key is not a Source node of the graph.
	ErrUnknownSource = errors.New("unknown source")
	// ErrArityMismatch means a node received the wrong number or shape of inputs.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrMissingForward means a node kind has no forward rule.
	ErrMissingForward = errors.New("missing forward rule")
	// ErrMissingBackward means a node kind has no backward rule.
	ErrMissingBackward = errors.New("missing backward rule")

	ErrUnknownNode   = errors.New("unknown node")
	ErrUnknownKind   = errors.New("unknown node kind")
	ErrMissingValue  = errors.New("missing value")
	ErrEmptyOrder    = errors.New("empty evaluation order")
	ErrNotEvaluated  = errors.New("graph not evaluated")
	ErrNotTrainable  = errors.New("node is not trainable")
	ErrStaleGradient = errors.New("stale gradient")
)

// ShapeError reports operands whose shapes a node kind cannot combine.
// It matches ErrArityMismatch and unwraps to the underlying tensor error.
type ShapeError struct {
	Op  string // Kind name, e.g. "linear"
	Err error  // Underlying cause
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying tensor error.
func (e *ShapeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrArityMismatch.
func (e *ShapeError) Is(target error) bool {
	return target == ErrArityMismatch
}

func shapeError(op string, err error) error {
	return &ShapeError{Op: op, Err: err}
}
