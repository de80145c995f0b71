package main

import "fmt"

// ValidationError blocks a submission before any state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NetworkError wraps a failed remote call. The tree is never rolled back on
// one: mutations are applied only after the call succeeds.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an edit or variant whose target prompt is gone from
// the tree. The merge is aborted so the operator can re-route the submission
// as a fresh create.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " " + e.ID + " not found"
}

// PartialApproveError means the tree merge succeeded but clearing the
// submission from the queue did not. The operator retries just the queue
// phase; re-approving would merge twice.
type PartialApproveError struct {
	SubmissionID string
	Err          error
}

func (e *PartialApproveError) Error() string {
	return fmt.Sprintf("submission %s merged but not cleared from the queue: %v", e.SubmissionID, e.Err)
}

func (e *PartialApproveError) Unwrap() error {
	return e.Err
}

type HTTPError struct {
	Err     error
	Message string
	Code    int
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}
