package channel

import "github.com/nodewire/rediskit/rkerrors"

// ErrClosed is returned by Send when the channel is not in the Normal
// state, and used to drain every pending/in-flight Command when
// close() runs.
var ErrClosed = rkerrors.ErrIllegalState
