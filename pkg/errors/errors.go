package errors

import "fmt"

// ErrInvalidInput indicates a malformed or missing field that the caller can fix.
type ErrInvalidInput struct {
	Message string
}

func (e *ErrInvalidInput) Error() string {
	return e.Message
}

// ErrInvalidTransition is returned when the status rule engine denies a
// requested order status change. Reason is safe to show to the caller.
type ErrInvalidTransition struct {
	From   string
	To     string
	Reason string
}

func (e *ErrInvalidTransition) Error() string {
	return e.Reason
}

// ErrForbidden indicates an authorization or ownership failure.
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	if e.Message == "" {
		return "access denied"
	}
	return e.Message
}

// ErrUnauthorized indicates a missing or invalid credential.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrNotFound indicates a referenced entity does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ErrConflict indicates a uniqueness violation, e.g. a second dispute for
// the same order.
type ErrConflict struct {
	Resource string
	Message  string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// ErrDependency wraps a storage or downstream failure. Callers see a generic
// message; the underlying error is for logs only.
type ErrDependency struct {
	Op  string
	Err error
}

func (e *ErrDependency) Error() string {
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *ErrDependency) Unwrap() error {
	return e.Err
}
