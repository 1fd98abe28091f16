package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuditNotFound is returned when an audit cannot be found by id.
	ErrAuditNotFound = errors.New("audit not found")

	// ErrURLRequired is returned when a submission carries no URL.
	ErrURLRequired = errors.New("url is required")

	// ErrTerminalStatus is returned when a status update targets an audit
	// that already reached completed or failed.
	ErrTerminalStatus = errors.New("audit is already in a terminal status")
)

// CaptureError reports a failure while loading the page or extracting
// its content.
type CaptureError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *CaptureError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("capture timed out for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("capture failed for %s: %v", e.URL, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// EvaluationError reports a failure while requesting or parsing the verdict.
type EvaluationError struct {
	Reason string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e.Err == nil {
		return "evaluation failed: " + e.Reason
	}
	return fmt.Sprintf("evaluation failed: %s: %v", e.Reason, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a store operation that could not reach its
// backend.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
