package youtube

import (
	"errors"
	"fmt"
)

// ErrAuth means the API credential is invalid or the API is not enabled for
// it. Fatal: retrying cannot help.
var ErrAuth = errors.New("youtube: invalid API credentials")

// TransientError covers network failures and upstream 5xx; callers may retry
// with backoff.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("youtube: transient failure: %v", e.Err)
	}
	return fmt.Sprintf("youtube: transient failure: status %d", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RateLimitError means the upstream is throttling us, which is distinct from
// our own daily budget being exhausted. Retryable after a pause.
type RateLimitError struct {
	Reason string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("youtube: rate limited (%s)", e.Reason)
}
