package rbac

import "errors"

var (
	// ErrNotFound marks an absent user, role, menu, grant or assignment.
	// The engine folds it into a deny.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a violated precondition such as a duplicate name
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput marks a malformed request
	ErrInvalidInput = errors.New("invalid input")
)
