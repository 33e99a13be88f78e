package nestedset

import (
	"errors"
	"fmt"

	"github.com/quintans/faults"
	tk "github.com/quintans/toolkit"
)

const (
	FAULT_STRUCTURE        = "tree-structure"
	FAULT_CYCLE            = "tree-cycle"
	FAULT_UNIQUE_ROOT      = "tree-unique-root"
	FAULT_PROTECTED_DELETE = "tree-protected-delete"
	FAULT_TX               = "tree-tx"
)

// ErrSkipChildren is returned by a Walk function to skip the descendants of the visited node
var ErrSkipChildren = errors.New("skip children")

// TreeError identifies the operation and the node that failed.
type TreeError struct {
	*tk.Fail
	Op    string
	Key   int64
	Scope int64
	Cause error
}

func newTreeError(code, op string, key, scope int64, cause error, format string, args ...interface{}) TreeError {
	return TreeError{
		Fail: &tk.Fail{
			Code:    code,
			Message: fmt.Sprintf(format, args...),
		},
		Op:    op,
		Key:   key,
		Scope: scope,
		Cause: cause,
	}
}

func (e *TreeError) Error() string {
	s := fmt.Sprintf("%s [key=%d scope=%d]: %s", e.Op, e.Key, e.Scope, e.Message)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *TreeError) Unwrap() error {
	return e.Cause
}

// StructuralViolation is an operation on a node in the wrong state
type StructuralViolation struct{ TreeError }

// CycleViolation is a move of a node into its own subtree
type CycleViolation struct{ TreeError }

// UniquenessViolation is a second root in a scope
type UniquenessViolation struct{ TreeError }

// ProtectedDeletion is the deletion of a root node
type ProtectedDeletion struct{ TreeError }

// TransactionFailure wraps any other failure of a mutation. The transaction was rolled back.
type TransactionFailure struct{ TreeError }

func structural(op string, key, scope int64, format string, args ...interface{}) error {
	return faults.Wrap(&StructuralViolation{newTreeError(FAULT_STRUCTURE, op, key, scope, nil, format, args...)})
}

func cycle(op string, key, scope int64, format string, args ...interface{}) error {
	return faults.Wrap(&CycleViolation{newTreeError(FAULT_CYCLE, op, key, scope, nil, format, args...)})
}

func uniqueness(op string, key, scope int64, cause error) error {
	return faults.Wrap(&UniquenessViolation{newTreeError(FAULT_UNIQUE_ROOT, op, key, scope, cause, "a root already exists for scope %d", scope)})
}

func protectedDeletion(op string, key, scope int64) error {
	return faults.Wrap(&ProtectedDeletion{newTreeError(FAULT_PROTECTED_DELETE, op, key, scope, nil, "a root can only be removed with DeleteTree")})
}

func transactionFailure(op string, key, scope int64, cause error) error {
	return faults.Wrap(&TransactionFailure{newTreeError(FAULT_TX, op, key, scope, cause, "rolled back")})
}

func IsStructural(err error) bool {
	var e *StructuralViolation
	return errors.As(err, &e)
}

func IsCycle(err error) bool {
	var e *CycleViolation
	return errors.As(err, &e)
}

func IsUniqueness(err error) bool {
	var e *UniquenessViolation
	return errors.As(err, &e)
}

func IsProtectedDeletion(err error) bool {
	var e *ProtectedDeletion
	return errors.As(err, &e)
}

func IsTransactionFailure(err error) bool {
	var e *TransactionFailure
	return errors.As(err, &e)
}

// isTreeError reports errors that are returned untouched by a mutation
func isTreeError(err error) bool {
	return IsStructural(err) || IsCycle(err) || IsUniqueness(err) || IsProtectedDeletion(err) || IsTransactionFailure(err)
}
