// Package queue is the pending-submission collection behind moderation:
// visitors put submissions in, the administrator lists, approves or rejects
// them. Listing returns pending entries only, most recent first.
package queue

import (
	"errors"

	"github.com/aquilax/promptbox/prompt"
)

// ErrNotFound is returned by Approve when the submission is no longer in the
// queue. Reject treats that case as success: rejecting an already-gone
// submission is a no-op, not an error.
var ErrNotFound = errors.New("queue: submission not found")

type Queue interface {
	Open(driver, dsn string) error
	Submit(sub prompt.Submission) (string, error)
	ListPending() ([]prompt.Submission, error)
	Approve(id string) error
	Reject(id string) error
	Close() error
}
