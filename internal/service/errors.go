package service

import "errors"

// Workflow outcome kinds. Handlers map these to HTTP status codes.
var (
	ErrPersistenceFailed   = errors.New("persistence failed")
	ErrEmailDispatchFailed = errors.New("email dispatch failed")
	ErrMissingToken        = errors.New("subscription token is missing")
	ErrUnknownToken        = errors.New("subscription token is unknown")
	ErrPublishInProgress   = errors.New("a newsletter is already being published")
	ErrLockUnavailable     = errors.New("publish lock unavailable")
)

// WorkflowError is a server-side workflow failure. Kind is one of the
// sentinels above; Err is the underlying cause and is never shown to callers.
type WorkflowError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *WorkflowError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *WorkflowError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func persistenceFailed(msg string, err error) error {
	return &WorkflowError{Kind: ErrPersistenceFailed, Msg: msg, Err: err}
}

func emailDispatchFailed(msg string, err error) error {
	return &WorkflowError{Kind: ErrEmailDispatchFailed, Msg: msg, Err: err}
}
