package ir

import (
	"errors"
	"fmt"
)

// Rules reported by StructuralError.
const (
	RuleTerminal     = "terminal-element"
	RuleSuccessors   = "successor-shape"
	RuleUnhandled    = "unhandled-successor"
	RuleCatches      = "catch-successors"
	RuleEntryShape   = "entry-shape"
	RuleExitShape    = "exit-shape"
	RuleEdgeSymmetry = "edge-symmetry"
	RulePlaceholder  = "placeholder"
	RuleOwnership    = "element-ownership"
	RuleIllegalOp    = "illegal-operation"
)

// StructuralError is an internal compiler error about the shape of the
// graph. It is returned by validity checks and panicked by operations
// that would break an invariant.
type StructuralError struct {
	Block *Block
	Rule  string
	Msg   string
}

func (e *StructuralError) Error() string {
	if e.Block == nil {
		return fmt.Sprintf("%s: %s", e.Rule, e.Msg)
	}
	return fmt.Sprintf("block %s (%s): %s: %s", e.Block.ID(), e.Block.Kind(), e.Rule, e.Msg)
}

func structural(b *Block, rule, format string, args ...any) *StructuralError {
	return &StructuralError{Block: b, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// AssertionError reports a caller bug: an operation was invoked on a
// variant that cannot support it.
type AssertionError struct {
	Op  string
	Msg string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("ir.%s: %s", e.Op, e.Msg)
}

func assertf(op, format string, args ...any) {
	panic(&AssertionError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// IsInternal reports whether err carries a StructuralError or an
// AssertionError.
func IsInternal(err error) bool {
	var se *StructuralError
	var ae *AssertionError
	return errors.As(err, &se) || errors.As(err, &ae)
}

// Recover converts a panicking StructuralError or AssertionError into
// *errp. Any other panic is re-raised.
//
//	defer ir.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *StructuralError:
		*errp = e
	case *AssertionError:
		*errp = e
	default:
		panic(r)
	}
}
