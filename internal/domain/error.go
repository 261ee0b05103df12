package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Access errors. These never reach the user as a message; the web layer
	// turns them into redirects.
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrSubscriptionRequired = errors.New("subscription required")

	// Commit errors
	ErrUnknownPlan      = errors.New("unknown plan")
	ErrCommitFailed     = errors.New("subscription commit failed")
	ErrCommitTimeout    = errors.New("subscription commit timed out")
	ErrCommitCanceled   = errors.New("subscription commit canceled")
	ErrCommitInProgress = errors.New("a subscription commit is already in progress")
	ErrRateLimited      = errors.New("too many subscription attempts, try again shortly")
)

// CommitError carries the persistence backend's message so it can be shown
// to the user as-is.
type CommitError struct {
	Message string
	Err     error
}

func (e *CommitError) Error() string { return e.Message }

func (e *CommitError) Unwrap() error { return e.Err }

func (e *CommitError) Is(target error) bool { return target == ErrCommitFailed }

// NewCommitError wraps err, keeping msg verbatim. An empty msg falls back to
// err's own text.
func NewCommitError(msg string, err error) *CommitError {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &CommitError{Message: msg, Err: err}
}
