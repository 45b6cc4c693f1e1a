/*
Package rkerrors defines the error kinds spec.md §7 requires every layer
of this client to classify failures into. They're kept in their own
package (rather than, say, channel or command) so every package from
resp up through the top-level client can return and compare against them
without an import cycle.
*/
package rkerrors

import "github.com/pkg/errors"

// Kind classifies a failure for observability and caller handling, per
// spec.md §7. Kind is never surfaced as a Go error itself — it labels
// one of the sentinel errors below or a *ServerError/*UnexpectedError.
type Kind string

const (
	KindInvalidArgument Kind = "invalid-argument"
	KindIllegalState    Kind = "illegal-state"
	KindTimeout         Kind = "timeout"
	KindRedisError      Kind = "redis-error"
	KindKeyNotFound     Kind = "key-not-found"
	KindUnexpectedError Kind = "unexpected-error"
)

// ErrInvalidArgument is raised synchronously, before any I/O, when a
// caller-supplied parameter violates a documented precondition.
var ErrInvalidArgument = errors.New("rediskit: invalid argument")

// ErrIllegalState is raised when a channel, pool, or router has no usable
// node to act on — closed channel, empty pool, or every node down.
var ErrIllegalState = errors.New("rediskit: illegal state")

// ErrTimeout is raised when a response didn't arrive within the caller's
// allotted time. It does not, on its own, close the channel or retry.
var ErrTimeout = errors.New("rediskit: timeout")

// ErrKeyNotFound is the logical "absent" result for get-style operations;
// it is returned as a plain error value but is expected to be a normal,
// frequent outcome rather than exceptional.
var ErrKeyNotFound = errors.New("rediskit: key not found")

// ServerError wraps a RESP Error frame's text verbatim, per spec.md §7.
type ServerError struct {
	Text string
}

func (e *ServerError) Error() string { return "rediskit: redis error: " + e.Text }

// UnexpectedError wraps any failure not covered by the kinds above: I/O
// errors, framing violations, transcoder magic mismatches, decode
// failures.
type UnexpectedError struct {
	Cause error
}

func (e *UnexpectedError) Error() string { return "rediskit: unexpected error: " + e.Cause.Error() }

func (e *UnexpectedError) Unwrap() error { return e.Cause }

// KindOf classifies err into one of the Kind constants for
// observability, falling back to KindUnexpectedError for anything it
// doesn't recognize.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrIllegalState):
		return KindIllegalState
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrKeyNotFound):
		return KindKeyNotFound
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return KindRedisError
	}
	return KindUnexpectedError
}
